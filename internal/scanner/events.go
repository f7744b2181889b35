package scanner

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sigreer/drivescan/internal/device"
)

// EventType identifies a scanner notification
type EventType string

const (
	// EventReady fires once per run, after the first successful cycle
	EventReady EventType = "ready"
	// EventAdd fires for a device that appeared since the previous cycle
	EventAdd EventType = "add"
	// EventRemove fires for a device that vanished since the previous cycle
	EventRemove EventType = "remove"
	// EventError fires when a cycle fails; the scanner is stopped afterwards
	EventError EventType = "error"
)

// Event is a single scanner notification
type Event struct {
	Type EventType
	// Device is set for add and remove events
	Device device.Device
	// Devices is the initial population, set for ready events
	Devices []device.Device
	// Err is set for error events
	Err error
	// Run identifies the Start call that produced the event
	Run   string
	Cycle uint64
	Time  time.Time
}

// Subscription delivers events in publish order. Events queue without bound
// until read, so a slow reader never stalls the scanner.
type Subscription struct {
	ID string

	bus    *bus
	out    chan Event
	notify chan struct{}
	done   chan struct{}

	mu        sync.Mutex
	queue     []Event
	closed    bool
	draining  bool
	once      sync.Once
	drainOnce sync.Once
}

// C returns the event channel. It is closed after Close, or once Drain has
// delivered the queued events.
func (s *Subscription) C() <-chan Event {
	return s.out
}

// Close unsubscribes; events still queued are discarded
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s.ID)
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.mu.Unlock()
		close(s.done)
	})
}

// Drain unsubscribes but keeps delivering the events already queued; C is
// closed after the last one is read. A later Close still discards the rest.
func (s *Subscription) Drain() {
	s.drainOnce.Do(func() {
		// remove waits out any publish in progress, so nothing is half pushed
		s.bus.remove(s.ID)
		s.mu.Lock()
		s.draining = true
		s.mu.Unlock()

		select {
		case s.notify <- struct{}{}:
		default:
		}
	})
}

func (s *Subscription) push(ev Event) {
	s.mu.Lock()
	if s.closed || s.draining {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			draining := s.draining
			s.mu.Unlock()
			if draining {
				return
			}
			select {
			case <-s.notify:
				continue
			case <-s.done:
				return
			}
		}
		ev := s.queue[0]
		s.queue[0] = Event{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}

// bus fans events out to subscriptions
type bus struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

func newBus() *bus {
	return &bus{subs: make(map[string]*Subscription)}
}

func (b *bus) subscribe() *Subscription {
	sub := &Subscription{
		ID:     uuid.NewString(),
		bus:    b,
		out:    make(chan Event),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()

	go sub.pump()
	return sub
}

func (b *bus) remove(id string) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

func (b *bus) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		sub.push(ev)
	}
}

func (b *bus) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
