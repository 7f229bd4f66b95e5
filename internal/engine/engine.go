// Package engine applies user commands and timer fires to machine records.
//
// Every transition runs under the machine's registry lock: the record is
// re-read, validated, committed and its timers adjusted before the lock is
// released. Audit entries and notifications are dispatched afterwards, so a
// slow or failing collaborator never blocks or undoes a committed transition.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"laundry-coordinator/config"
	"laundry-coordinator/internal/clock"
	"laundry-coordinator/internal/cooldown"
	"laundry-coordinator/internal/directory"
	"laundry-coordinator/internal/log"
	"laundry-coordinator/internal/metrics"
	"laundry-coordinator/internal/model"
	"laundry-coordinator/internal/notification"
	"laundry-coordinator/internal/registry"
	"laundry-coordinator/internal/scheduler"
)

// Notifier delivers notification intents. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, in notification.Intent)
}

// AuditSink appends accountability events.
type AuditSink interface {
	Append(ctx context.Context, entry model.AuditEntry) error
}

// IdentityResolver turns user ids into display identities.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) directory.Identity
}

// Config holds the engine tunables.
type Config struct {
	Durations         map[model.Kind][]int
	WarningLead       time.Duration
	PingCooldown      time.Duration
	StopConfirmWindow time.Duration
}

// ConfigFrom converts the file configuration.
func ConfigFrom(cfg config.EngineConfig) Config {
	return Config{
		Durations: map[model.Kind][]int{
			model.KindWasher: cfg.DurationsFor(string(model.KindWasher)),
			model.KindDryer:  cfg.DurationsFor(string(model.KindDryer)),
		},
		WarningLead:       cfg.WarningLead,
		PingCooldown:      cfg.PingCooldown,
		StopConfirmWindow: cfg.StopConfirmWindow,
	}
}

// Result describes the record after a command.
type Result struct {
	Machine model.Machine
	// Changed is false for commands that resolved to the current state.
	Changed bool
	// Owner is the identity disclosed to a pinger.
	Owner *directory.Identity
	// StopExpiresAt is set by StopPropose.
	StopExpiresAt *time.Time
	// Intents are the notifications handed to the notifier.
	Intents []notification.Intent
}

// Engine is the state machine over the registry.
type Engine struct {
	reg        *registry.Registry
	clock      clock.Clock
	timers     *scheduler.Scheduler
	cooldown   *cooldown.Tracker
	notifier   Notifier
	audit      AuditSink
	identities IdentityResolver
	cfg        Config
	logger     zerolog.Logger
}

// New creates an engine. Nil collaborators are replaced by no-ops.
func New(reg *registry.Registry, clk clock.Clock, notifier Notifier, audit AuditSink, identities IdentityResolver, cfg Config) *Engine {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if audit == nil {
		audit = nopAudit{}
	}
	if identities == nil {
		identities = rawIdentities{}
	}
	e := &Engine{
		reg:        reg,
		clock:      clk,
		cooldown:   cooldown.New(cfg.PingCooldown),
		notifier:   notifier,
		audit:      audit,
		identities: identities,
		cfg:        cfg,
		logger:     log.WithComponent("engine"),
	}
	e.timers = scheduler.New(clk, e.onTimer)
	return e
}

// Close disarms every timer.
func (e *Engine) Close() {
	e.timers.Stop()
}

// effects collects what a transition wants done once its record is decided.
type effects struct {
	changed  bool
	cancel   bool
	schedule bool

	audits      []model.AuditEntry
	intents     []notification.Intent
	owner       string
	stopExpires *time.Time
}

func (fx *effects) notify(userID string, kind notification.MessageKind, p notification.Payload) {
	fx.intents = append(fx.intents, notification.Intent{UserID: userID, Kind: kind, Payload: p})
}

func (fx *effects) record(t model.AuditEventType, machineID, actor string, displaced *string, now time.Time) {
	fx.audits = append(fx.audits, model.AuditEntry{
		ID:              uuid.NewString(),
		EventType:       t,
		MachineID:       machineID,
		ActingUserID:    actor,
		DisplacedUserID: displaced,
		OccurredAt:      now,
	})
}

type transition func(m *model.Machine, now time.Time, fx *effects) error

// command runs a user-initiated transition.
func (e *Engine) command(ctx context.Context, action, machineID, userID string, fn transition) (Result, error) {
	if userID == "" {
		metrics.RecordTransition(action, Class(ErrForbidden))
		return Result{}, fmt.Errorf("%w: missing user id", ErrForbidden)
	}
	return e.apply(ctx, action, machineID, userID, fn)
}

func (e *Engine) apply(ctx context.Context, action, machineID, actor string, fn transition) (Result, error) {
	l, err := e.reg.Acquire(machineID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			err = fmt.Errorf("%w: %q", ErrNotFound, machineID)
		}
		metrics.RecordTransition(action, Class(err))
		return Result{}, err
	}
	defer l.Release()

	before := l.Machine()
	m := before.Clone()
	now := e.clock.Now()

	var fx effects
	if err := fn(&m, now, &fx); err != nil {
		l.Release()
		metrics.RecordTransition(action, Class(err))
		e.logger.Debug().Err(err).
			Str(log.FieldAction, action).
			Str(log.FieldMachineID, machineID).
			Str(log.FieldUserID, actor).
			Msg("command rejected")
		return Result{Machine: before}, err
	}

	if fx.changed {
		if err := l.Commit(ctx, m); err != nil {
			l.Release()
			metrics.RecordTransition(action, "store_error")
			e.logger.Error().Err(err).
				Str(log.FieldAction, action).
				Str(log.FieldMachineID, machineID).
				Msg("failed to commit transition")
			return Result{Machine: before}, fmt.Errorf("commit %s: %w", machineID, err)
		}
	}
	if fx.cancel {
		e.timers.Cancel(machineID)
	}
	if fx.schedule && m.CycleEndAt != nil {
		e.timers.Schedule(machineID, m.CycleID, *m.CycleEndAt, e.cfg.WarningLead)
	}
	l.Release()

	if fx.changed {
		metrics.RecordTransition(action, "applied")
		e.logger.Info().
			Str(log.FieldAction, action).
			Str(log.FieldMachineID, machineID).
			Str(log.FieldUserID, actor).
			Uint64(log.FieldCycle, m.CycleID).
			Str(log.FieldOldState, string(before.Status)).
			Str(log.FieldNewState, string(m.Status)).
			Msg("transition committed")
	} else {
		metrics.RecordTransition(action, "noop")
	}

	res := Result{Machine: m, Changed: fx.changed, StopExpiresAt: fx.stopExpires}
	res.Intents = e.dispatch(ctx, &fx)
	if fx.owner != "" {
		owner := e.identities.Resolve(ctx, fx.owner)
		res.Owner = &owner
	}
	return res, nil
}

// dispatch hands the effects to the collaborators. Failures are logged only.
func (e *Engine) dispatch(ctx context.Context, fx *effects) []notification.Intent {
	ctx = context.WithoutCancel(ctx)
	for _, entry := range fx.audits {
		if err := e.audit.Append(ctx, entry); err != nil {
			e.logger.Error().Err(err).
				Str(log.FieldMachineID, entry.MachineID).
				Str("event_type", string(entry.EventType)).
				Msg("failed to append audit entry")
		}
	}
	for i := range fx.intents {
		in := &fx.intents[i]
		if in.Payload.ActorID != "" && in.Payload.ActorName == "" {
			in.Payload.ActorName = e.identities.Resolve(ctx, in.Payload.ActorID).DisplayName
		}
		e.notifier.Notify(ctx, *in)
	}
	return fx.intents
}

func (e *Engine) duration(kind model.Kind, minutes int) (time.Duration, error) {
	if !slices.Contains(e.cfg.Durations[kind], minutes) {
		return 0, fmt.Errorf("%w: %d minutes is not offered for a %s (allowed %v)",
			ErrInvalidDuration, minutes, kind, e.cfg.Durations[kind])
	}
	return time.Duration(minutes) * time.Minute, nil
}

// begin opens a new cycle on an Available record.
func (e *Engine) begin(m *model.Machine, userID string, d time.Duration, now time.Time, fx *effects) {
	end := now.Add(d)
	owner := userID
	started := now

	m.CycleID++
	m.Status = model.StatusRunning
	m.CurrentUser = &owner
	m.CycleStartedAt = &started
	m.CycleEndAt = &end
	m.PendingStopUntil = nil

	fx.changed = true
	fx.schedule = true
}

// free returns a record to Available, remembering who used it last.
func free(m *model.Machine, fx *effects) {
	if m.CurrentUser != nil {
		last := *m.CurrentUser
		m.LastUser = &last
	}
	m.Status = model.StatusAvailable
	m.CurrentUser = nil
	m.CycleStartedAt = nil
	m.CycleEndAt = nil
	m.PendingStopUntil = nil

	fx.changed = true
	fx.cancel = true
}

// finish marks a running cycle done and tells the owner.
func (e *Engine) finish(m *model.Machine, now time.Time, fx *effects) {
	m.Status = model.StatusFinished
	m.PendingStopUntil = nil
	fx.changed = true

	p := payload(m, "", now)
	p.Actions = []string{"collect"}
	fx.notify(*m.CurrentUser, notification.KindCycleDone, p)
}

func payload(m *model.Machine, actor string, now time.Time) notification.Payload {
	p := notification.Payload{
		MachineID:    m.ID,
		MachineLabel: m.Label(),
		MachineKind:  string(m.Kind),
		Level:        m.Level,
		ActorID:      actor,
	}
	if m.CycleEndAt != nil {
		end := *m.CycleEndAt
		p.CycleEndAt = &end
		if m.Status == model.StatusRunning {
			p.MinutesLeft = MinutesUntil(end, now)
		}
	}
	return p
}

// MinutesUntil rounds the time left up to whole minutes.
func MinutesUntil(t, now time.Time) int {
	left := t.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Minute - 1) / time.Minute)
}

func ownerOf(m *model.Machine) string {
	if m.CurrentUser == nil {
		return ""
	}
	return *m.CurrentUser
}

// Start begins a cycle on an Available machine.
func (e *Engine) Start(ctx context.Context, machineID, userID string, minutes int) (Result, error) {
	return e.command(ctx, "start", machineID, userID, func(m *model.Machine, now time.Time, fx *effects) error {
		d, err := e.duration(m.Kind, minutes)
		if err != nil {
			return err
		}
		if m.Status != model.StatusAvailable {
			return fmt.Errorf("%w: %s is %s, use override or force stop", ErrConflict, m.Label(), m.Status)
		}
		e.begin(m, userID, d, now, fx)
		return nil
	})
}

// Override starts a cycle whatever the recorded state. A cycle held by
// someone else is ended as by ForceStop and recorded as an override.
func (e *Engine) Override(ctx context.Context, machineID, userID string, minutes int) (Result, error) {
	return e.command(ctx, "override", machineID, userID, func(m *model.Machine, now time.Time, fx *effects) error {
		d, err := e.duration(m.Kind, minutes)
		if err != nil {
			return err
		}
		if m.Status != model.StatusAvailable {
			if displaced := ownerOf(m); displaced != "" && displaced != userID {
				fx.record(model.AuditOverride, m.ID, userID, &displaced, now)
				fx.notify(displaced, notification.KindOverridden, payload(m, userID, now))
			}
			free(m, fx)
		}
		e.begin(m, userID, d, now, fx)
		return nil
	})
}

// StopPropose opens the confirmation window for the owner's own stop.
func (e *Engine) StopPropose(ctx context.Context, machineID, userID string) (Result, error) {
	return e.command(ctx, "stop_propose", machineID, userID, func(m *model.Machine, now time.Time, fx *effects) error {
		if m.Status != model.StatusRunning || !m.IsOwnedBy(userID) {
			return fmt.Errorf("%w: only the owner can stop a running %s", ErrForbidden, m.Label())
		}
		until := now.Add(e.cfg.StopConfirmWindow)
		m.PendingStopUntil = &until
		fx.changed = true
		fx.stopExpires = &until
		return nil
	})
}

// StopConfirm ends the owner's cycle if a proposal is still live.
func (e *Engine) StopConfirm(ctx context.Context, machineID, userID string) (Result, error) {
	return e.command(ctx, "stop_confirm", machineID, userID, func(m *model.Machine, now time.Time, fx *effects) error {
		if m.Status != model.StatusRunning || !m.IsOwnedBy(userID) {
			return fmt.Errorf("%w: only the owner can stop a running %s", ErrForbidden, m.Label())
		}
		if m.PendingStopUntil == nil || now.After(*m.PendingStopUntil) {
			return fmt.Errorf("%w: propose the stop again", ErrNoPendingStop)
		}
		free(m, fx)
		return nil
	})
}

// ForceStop frees a machine held by someone else and tells them.
func (e *Engine) ForceStop(ctx context.Context, machineID, userID string) (Result, error) {
	return e.command(ctx, "force_stop", machineID, userID, func(m *model.Machine, now time.Time, fx *effects) error {
		if m.Status == model.StatusAvailable {
			return fmt.Errorf("%w: %s is already available", ErrInvalidState, m.Label())
		}
		if m.IsOwnedBy(userID) {
			return fmt.Errorf("%w: use stop for your own cycle", ErrForbidden)
		}
		displaced := ownerOf(m)
		p := payload(m, userID, now)
		free(m, fx)
		fx.record(model.AuditForceStop, m.ID, userID, &displaced, now)
		fx.notify(displaced, notification.KindForceStopped, p)
		return nil
	})
}

// Collect frees a Finished machine for its owner. Collecting an Available
// machine succeeds without a change.
func (e *Engine) Collect(ctx context.Context, machineID, userID string) (Result, error) {
	return e.command(ctx, "collect", machineID, userID, func(m *model.Machine, now time.Time, fx *effects) error {
		switch {
		case m.Status == model.StatusAvailable:
			return nil
		case m.Status == model.StatusRunning:
			return fmt.Errorf("%w: %s is still running", ErrInvalidState, m.Label())
		case !m.IsOwnedBy(userID):
			return fmt.Errorf("%w: only the owner can collect from %s", ErrForbidden, m.Label())
		}
		free(m, fx)
		return nil
	})
}

// Ping nudges the owner of a Finished machine and discloses who they are.
func (e *Engine) Ping(ctx context.Context, machineID, userID string) (Result, error) {
	return e.command(ctx, "ping", machineID, userID, func(m *model.Machine, now time.Time, fx *effects) error {
		if m.Status != model.StatusFinished {
			return fmt.Errorf("%w: %s is %s, only finished machines can be pinged", ErrInvalidState, m.Label(), m.Status)
		}
		if remaining := e.cooldown.Remaining(m.LastPingAt, now); remaining > 0 {
			return &CooldownError{Remaining: remaining}
		}
		pinged := now
		m.LastPingAt = &pinged
		fx.changed = true
		fx.owner = ownerOf(m)
		fx.notify(fx.owner, notification.KindPinged, payload(m, userID, now))
		return nil
	})
}

// Status returns the machines of a level ordered by id. An empty level lists all.
func (e *Engine) Status(level string) []model.Machine {
	return e.reg.List(level)
}

// Get returns a snapshot of one machine.
func (e *Engine) Get(machineID string) (model.Machine, error) {
	m, err := e.reg.Load(machineID)
	if errors.Is(err, registry.ErrNotFound) {
		return model.Machine{}, fmt.Errorf("%w: %q", ErrNotFound, machineID)
	}
	return m, err
}

// Now is the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

func (e *Engine) onTimer(machineID string, cycle uint64, kind scheduler.Kind) {
	stale := false
	_, err := e.apply(context.Background(), "timer_"+string(kind), machineID, "system", func(m *model.Machine, now time.Time, fx *effects) error {
		if m.Status != model.StatusRunning || m.CycleID != cycle || m.CurrentUser == nil {
			stale = true
			return nil
		}
		switch kind {
		case scheduler.KindWarning:
			fx.notify(*m.CurrentUser, notification.KindCycleWarning, payload(m, "", now))
		case scheduler.KindCompletion:
			e.finish(m, now, fx)
		}
		return nil
	})

	outcome := "applied"
	if stale {
		outcome = "stale"
	}
	if err != nil {
		outcome = "failed"
		e.logger.Error().Err(err).
			Str(log.FieldMachineID, machineID).
			Str(log.FieldTimer, string(kind)).
			Msg("timer fire failed")
	}
	metrics.RecordTimerFire(string(kind), outcome)
	e.logger.Debug().
		Str(log.FieldMachineID, machineID).
		Uint64(log.FieldCycle, cycle).
		Str(log.FieldTimer, string(kind)).
		Str("outcome", outcome).
		Msg("timer fired")
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, notification.Intent) {}

type nopAudit struct{}

func (nopAudit) Append(context.Context, model.AuditEntry) error { return nil }

type rawIdentities struct{}

func (rawIdentities) Resolve(_ context.Context, userID string) directory.Identity {
	return directory.Identity{UserID: userID, DisplayName: userID}
}
