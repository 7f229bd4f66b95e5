package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"laundry-coordinator/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_ListMachines(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "machines" ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "level", "seq", "status", "cycle_id"}).
			AddRow("9_washer_1", "Washer", "9", 1, "Available", 0).
			AddRow("9_washer_2", "Washer", "9", 2, "Running", 4))

	machines, err := s.ListMachines(context.Background())
	require.NoError(t, err)
	require.Len(t, machines, 2)
	assert.Equal(t, model.StatusRunning, machines[1].Status)
	assert.Equal(t, uint64(4), machines[1].CycleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SaveMachine(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "machines" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	alice := "alice"
	end := time.Now().Add(33 * time.Minute)
	err := s.SaveMachine(context.Background(), model.Machine{
		ID: "W1", Kind: model.KindWasher, Level: "9", Seq: 1,
		Status: model.StatusRunning, CurrentUser: &alice, CycleID: 1, CycleEndAt: &end,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SaveMachine_Error(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "machines" SET`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.SaveMachine(context.Background(), model.Machine{ID: "W1", Status: model.StatusAvailable})
	assert.ErrorContains(t, err, "failed to save machine W1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_AppendAudit(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	alice := "alice"
	entry := model.AuditEntry{
		ID:              "4b0c5c57-0b47-4b4e-9c53-7e0d3c1c0e11",
		EventType:       model.AuditForceStop,
		MachineID:       "D1",
		ActingUserID:    "bob",
		DisplacedUserID: &alice,
		OccurredAt:      time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_entries"`)).
		WithArgs(entry.ID, "FORCE_STOP", "D1", "bob", "alice", Any{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assert.NoError(t, s.AppendAudit(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetUser(t *testing.T) {
	testCases := []struct {
		name        string
		rows        *sqlmock.Rows
		expectedErr error
		expected    model.User
	}{
		{
			name: "Existing user",
			rows: sqlmock.NewRows([]string{"id", "display_name", "handle"}).
				AddRow("alice", "Alice", "@alice"),
			expected: model.User{ID: "alice", DisplayName: "Alice", Handle: "@alice"},
		},
		{
			name:        "Unknown user maps to ErrNotFound",
			rows:        sqlmock.NewRows([]string{"id", "display_name", "handle"}),
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)

			mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 ORDER BY "users"."id" LIMIT \$[0-9]+`).
				WithArgs("alice", 1).
				WillReturnRows(tc.rows)

			u, err := s.GetUser(context.Background(), "alice")
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, u)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_SubscriptionsForUser(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions" WHERE user_id = $1`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "user_id", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/push/a", "alice", "k", "a", time.Now()))

	subs, err := s.SubscriptionsForUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://example.com/push/a", subs[0].Endpoint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DeleteSubscription(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = $1`)).
		WithArgs("https://example.com/expired").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assert.NoError(t, s.DeleteSubscription(context.Background(), "https://example.com/expired"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
