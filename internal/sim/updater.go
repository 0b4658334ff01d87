package sim

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
)

// Updater owns the process state. Every transition is serialized and
// broadcast to observers before the next one starts.
type Updater struct {
	mu        sync.Mutex
	state     process.State
	model     process.Model
	noise     process.Source
	seq       uint64
	ticks     uint64
	last      Cause
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger
	observers []*subscription
	nextID    int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type subscription struct {
	id  int
	obs Observer
}

// Option configures an Updater.
type Option func(*Updater)

// WithNoise sets the sensor noise source.
func WithNoise(src process.Source) Option { return func(u *Updater) { u.noise = src } }

// WithSeed seeds the default noise source.
func WithSeed(seed int64) Option {
	return func(u *Updater) { u.noise = rand.New(rand.NewSource(seed)) }
}

// WithInterval sets the clock period.
func WithInterval(d time.Duration) Option { return func(u *Updater) { u.interval = d } }

func WithModel(m process.Model) Option { return func(u *Updater) { u.model = m } }

func WithLogger(l *slog.Logger) Option { return func(u *Updater) { u.logger = l } }

// WithClock overrides the timestamp source of snapshots.
func WithClock(now func() time.Time) Option { return func(u *Updater) { u.now = now } }

// New creates an Updater holding initial.
func New(initial process.State, opts ...Option) *Updater {
	u := &Updater{
		state:    initial.Clone(),
		model:    process.DefaultModel(),
		interval: DefaultInterval,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.noise == nil {
		u.noise = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return u
}

// Snapshot returns the current state, tagged with the transition that
// produced it.
func (u *Updater) Snapshot() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snapshotLocked(u.last)
}

// State returns a copy of the current state.
func (u *Updater) State() process.State {
	return u.Snapshot().State
}

func (u *Updater) Interval() time.Duration { return u.interval }

// Tick applies one clock tick.
func (u *Updater) Tick() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state = u.model.Tick(u.state, u.noise)
	u.ticks++
	return u.commitLocked(CauseTick)
}

// ApplyUserEdit sets an editable field immediately.
func (u *Updater) ApplyUserEdit(f process.Field, value float64) (Snapshot, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	next, err := process.ApplyUserEdit(u.state, f, value)
	if err != nil {
		return u.snapshotLocked(u.last), err
	}
	if u.state.AutoDosing && !next.AutoDosing {
		u.logger.Info("dosing switched to manual", "dosage", next.Dosage)
	}
	u.state = next
	return u.commitLocked(CauseEdit), nil
}

// ToggleAutoDosing flips the dosing mode.
func (u *Updater) ToggleAutoDosing() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state = process.ToggleAutoDosing(u.state)
	u.logger.Info("dosing mode toggled", "mode", u.state.Mode())
	return u.commitLocked(CauseToggle)
}

// Subscribe registers obs and returns a function that removes it.
func (u *Updater) Subscribe(obs Observer) (cancel func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nextID++
	id := u.nextID
	u.observers = append(u.observers, &subscription{id: id, obs: obs})

	var once sync.Once
	return func() {
		once.Do(func() {
			u.mu.Lock()
			defer u.mu.Unlock()
			for i, s := range u.observers {
				if s.id == id {
					u.observers = append(u.observers[:i], u.observers[i+1:]...)
					break
				}
			}
		})
	}
}

func (u *Updater) snapshotLocked(cause Cause) Snapshot {
	return Snapshot{
		Seq:   u.seq,
		Tick:  u.ticks,
		Cause: cause,
		At:    u.now(),
		State: u.state.Clone(),
	}
}

func (u *Updater) commitLocked(cause Cause) Snapshot {
	u.seq++
	u.last = cause
	snap := u.snapshotLocked(cause)
	for _, s := range u.observers {
		s.obs.OnSnapshot(Snapshot{Seq: snap.Seq, Tick: snap.Tick, Cause: snap.Cause, At: snap.At, State: snap.State.Clone()})
	}
	return snap
}
