package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"laundry-coordinator/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	ListMachines(ctx context.Context) ([]model.Machine, error)
	SaveMachine(ctx context.Context, m model.Machine) error
	UpsertInventory(ctx context.Context, machines []model.Machine) error

	AppendAudit(ctx context.Context, entry model.AuditEntry) error
	ListAudit(ctx context.Context, machineID string, limit int) ([]model.AuditEntry, error)

	GetUser(ctx context.Context, id string) (model.User, error)
	UpsertUser(ctx context.Context, u model.User) error

	PutSubscription(ctx context.Context, sub model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// ListMachines returns every provisioned machine ordered by id.
func (s *gormStore) ListMachines(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	if err := s.db.WithContext(ctx).Order("id").Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

// SaveMachine writes the full record, including cleared optional fields.
func (s *gormStore) SaveMachine(ctx context.Context, m model.Machine) error {
	if err := s.db.WithContext(ctx).Save(&m).Error; err != nil {
		return fmt.Errorf("failed to save machine %s: %w", m.ID, err)
	}
	return nil
}

// UpsertInventory inserts missing machines and refreshes identity columns of
// existing ones. Lifecycle columns are never touched.
func (s *gormStore) UpsertInventory(ctx context.Context, machines []model.Machine) error {
	if len(machines) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "level", "seq", "updated_at"}),
		}).Create(&machines).Error
	})
}

// AppendAudit inserts a new audit entry.
func (s *gormStore) AppendAudit(ctx context.Context, entry model.AuditEntry) error {
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry for machine %s: %w", entry.MachineID, err)
	}
	return nil
}

// ListAudit returns the newest entries for a machine first.
func (s *gormStore) ListAudit(ctx context.Context, machineID string, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []model.AuditEntry
	err := s.db.WithContext(ctx).
		Where("machine_id = ?", machineID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries for machine %s: %w", machineID, err)
	}
	return entries, nil
}

// GetUser loads a registered user.
func (s *gormStore) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}
	return u, nil
}

// UpsertUser creates or replaces a user profile.
func (s *gormStore) UpsertUser(ctx context.Context, u model.User) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "handle", "level", "house", "updated_at"}),
	}).Create(&u).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
	}
	return nil
}

// PutSubscription creates or replaces a push subscription.
func (s *gormStore) PutSubscription(ctx context.Context, sub model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(&sub).Error
	if err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}
	return nil
}

// DeleteSubscription removes a push subscription by endpoint.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", endpoint, err)
	}
	return nil
}

// SubscriptionsForUser lists every push endpoint registered by a user.
func (s *gormStore) SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for user %s: %w", userID, err)
	}
	return subs, nil
}
