package scanner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sigreer/drivescan/internal/adapter"
	"github.com/sigreer/drivescan/internal/device"
)

// DefaultInterval is the pause between the end of one cycle and the next
const DefaultInterval = time.Second

var (
	// ErrInvalidInterval is returned for a non-positive scan interval
	ErrInvalidInterval = errors.New("scanner: interval must be positive")
	// ErrNilAdapter is returned when an adapter in the list is nil
	ErrNilAdapter = errors.New("scanner: nil adapter")
)

// State is the lifecycle state of a Scanner
type State int

const (
	StateIdle State = iota
	StateScanning
	StateReady
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateReady:
		return "ready"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Option configures a Scanner
type Option func(*Scanner)

// WithInterval sets the delay between cycles
func WithInterval(d time.Duration) Option {
	return func(s *Scanner) {
		s.interval = d
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// Scanner polls its adapters and reports devices appearing and disappearing.
//
// Cycles never overlap: the next one is scheduled only after the previous
// one has been applied. A failing adapter aborts the cycle, publishes an
// error event and stops the scanner.
type Scanner struct {
	adapters []adapter.Adapter
	interval time.Duration
	logger   *slog.Logger
	bus      *bus

	mu     sync.RWMutex
	state  State
	drives *device.Set
	run    *run // nil unless running
	last   *run
}

// run is the loop started by one Start call
type run struct {
	id      string
	cancel  context.CancelFunc
	trigger chan struct{}
	done    chan struct{}
	cycle   uint64
	ready   bool
}

// New creates a Scanner over adapters. Zero adapters is valid and yields an
// always-empty population.
func New(adapters []adapter.Adapter, opts ...Option) (*Scanner, error) {
	for _, a := range adapters {
		if a == nil {
			return nil, ErrNilAdapter
		}
	}

	s := &Scanner{
		adapters: append([]adapter.Adapter(nil), adapters...),
		interval: DefaultInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		bus:      newBus(),
		drives:   device.NewSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		return nil, ErrInvalidInterval
	}
	return s, nil
}

// Subscribe registers for notifications
func (s *Scanner) Subscribe() *Subscription {
	return s.bus.subscribe()
}

// Start begins polling. It returns immediately; failures arrive as error
// events. Calling Start while running does nothing. Cancelling ctx stops the
// scanner like Stop.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		s.logger.Debug("scanner already running", "run", s.run.id)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &run{
		id:      uuid.NewString(),
		cancel:  cancel,
		trigger: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.run = r
	s.last = r
	s.state = StateScanning
	s.drives = device.NewSet()

	s.logger.Info("scanner started",
		"run", r.id,
		"adapters", len(s.adapters),
		"interval", s.interval)

	go s.loop(ctx, r)
}

// Stop halts polling and clears the population. Results of a cycle still in
// flight are discarded. Stop is idempotent and does nothing before Start.
func (s *Scanner) Stop() {
	s.mu.Lock()
	r := s.run
	if r == nil {
		s.mu.Unlock()
		return
	}
	s.halt()
	s.mu.Unlock()

	r.cancel()
	s.logger.Info("scanner stopped", "run", r.id)
}

// halt ends the current run; callers hold s.mu
func (s *Scanner) halt() {
	s.run = nil
	s.state = StateStopped
	s.drives = device.NewSet()
}

// Wait blocks until the loop of the most recent Start has exited
func (s *Scanner) Wait() {
	s.mu.RLock()
	r := s.last
	s.mu.RUnlock()
	if r != nil {
		<-r.done
	}
}

// Trigger asks for a cycle now instead of at the next interval. Requests made
// while a cycle is running coalesce into one follow-up cycle.
func (s *Scanner) Trigger() {
	s.mu.RLock()
	r := s.run
	s.mu.RUnlock()
	if r == nil {
		return
	}
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// State returns the current lifecycle state
func (s *Scanner) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Drives returns the current population in listing order
func (s *Scanner) Drives() []device.Device {
	s.mu.RLock()
	drives := s.drives
	s.mu.RUnlock()
	return drives.Devices()
}

// Has reports whether a device with the given identity is currently known
func (s *Scanner) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drives.Has(id)
}

func (s *Scanner) loop(ctx context.Context, r *run) {
	defer close(r.done)
	defer r.cancel()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.run == r {
				s.halt()
				s.logger.Info("scanner context done", "run", r.id)
			}
			s.mu.Unlock()
			return
		case <-timer.C:
		case <-r.trigger:
			s.logger.Debug("scan triggered", "run", r.id)
		}

		if !s.cycle(ctx, r) {
			return
		}
		timer.Reset(s.interval)
	}
}

// cycle runs one scan and applies it. It returns false when the run is over.
func (s *Scanner) cycle(ctx context.Context, r *run) bool {
	s.mu.Lock()
	if s.run != r {
		s.mu.Unlock()
		return false
	}
	s.state = StateScanning
	s.mu.Unlock()

	start := time.Now()
	next, err := s.scanAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stopped or restarted while the adapters were running
	if s.run != r {
		return false
	}
	if err != nil && ctx.Err() != nil {
		s.halt()
		return false
	}

	r.cycle++
	now := time.Now()

	if err != nil {
		s.logger.Error("scan failed, stopping scanner",
			"run", r.id,
			"cycle", r.cycle,
			"error", describe(err))
		s.halt()
		r.cancel()
		s.bus.publish(Event{Type: EventError, Err: err, Run: r.id, Cycle: r.cycle, Time: now})
		return false
	}

	prev := s.drives
	s.drives = next
	s.state = StateReady

	if !r.ready {
		r.ready = true
		s.logger.Info("scanner ready",
			"run", r.id,
			"devices", next.Len(),
			"duration", time.Since(start))
		s.bus.publish(Event{Type: EventReady, Devices: next.Devices(), Run: r.id, Cycle: r.cycle, Time: now})
		return true
	}

	added, removed := prev.Diff(next)
	s.logger.Debug("scan complete",
		"run", r.id,
		"cycle", r.cycle,
		"devices", next.Len(),
		"added", len(added),
		"removed", len(removed),
		"duration", time.Since(start))

	for _, d := range removed {
		s.logger.Info("device removed", "id", d.ID, "name", d.DisplayName)
		s.bus.publish(Event{Type: EventRemove, Device: d, Run: r.id, Cycle: r.cycle, Time: now})
	}
	for _, d := range added {
		s.logger.Info("device added", "id", d.ID, "name", d.DisplayName)
		s.bus.publish(Event{Type: EventAdd, Device: d, Run: r.id, Cycle: r.cycle, Time: now})
	}
	return true
}

// scanAll runs every adapter concurrently and merges their devices. Any
// failure discards the whole cycle.
func (s *Scanner) scanAll(ctx context.Context) (*device.Set, error) {
	results := make([][]device.Device, len(s.adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range s.adapters {
		i, a := i, a
		g.Go(func() error {
			devices, err := a.Scan(gctx)
			if err != nil {
				return err
			}
			results[i] = devices
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []device.Device
	for _, devices := range results {
		all = append(all, devices...)
	}
	return device.NewSet(all...), nil
}

func describe(err error) string {
	var listErr *adapter.ListingError
	if errors.As(err, &listErr) {
		return listErr.Describe()
	}
	return err.Error()
}
