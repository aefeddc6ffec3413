package viewstate

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	navigationsSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokedex_navigations_superseded_total",
		Help: "Total detail navigations cancelled by a newer navigation of the same session",
	})

	navigationsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pokedex_navigations_inflight",
		Help: "Detail navigations currently in flight",
	})
)

// slot is the in-flight navigation of one session. A slot is retired when
// its last navigation ends and never reused, so a stale ticket can only ever
// observe a slot whose current id differs from its own.
type slot struct {
	mu      sync.Mutex
	current uint64
	name    string
	cancel  context.CancelCauseFunc
	retired bool
}

// Navigator tracks at most one in-flight detail navigation per session.
// Beginning a navigation cancels the session's previous one, and only the
// newest navigation may commit its result.
type Navigator struct {
	mu    sync.Mutex
	slots map[string]*slot
	seq   uint64
}

// NewNavigator creates an empty navigator.
func NewNavigator() *Navigator {
	return &Navigator{slots: make(map[string]*slot)}
}

// Ticket identifies one navigation.
type Ticket struct {
	nav     *Navigator
	session string
	slot    *slot
	id      uint64
	cancel  context.CancelCauseFunc
	done    sync.Once
}

// Begin starts a navigation to name for the session, cancelling the
// session's previous navigation with cause ErrSuperseded. The returned
// context must be used for the navigation's upstream calls, and the ticket
// released with Done.
func (n *Navigator) Begin(ctx context.Context, session, name string) (context.Context, *Ticket) {
	nctx, cancel := context.WithCancelCause(ctx)

	var (
		s  *slot
		id uint64
	)
	for {
		n.mu.Lock()
		n.seq++
		id = n.seq
		var ok bool
		s, ok = n.slots[session]
		if !ok {
			s = &slot{}
			n.slots[session] = s
		}
		n.mu.Unlock()

		s.mu.Lock()
		if !s.retired {
			break
		}
		// lost a race with Done of the previous navigation
		s.mu.Unlock()
		n.mu.Lock()
		if n.slots[session] == s {
			delete(n.slots, session)
		}
		n.mu.Unlock()
	}

	if s.cancel != nil {
		s.cancel(ErrSuperseded)
		navigationsSuperseded.Inc()
	} else {
		navigationsInFlight.Inc()
	}
	s.current = id
	s.name = name
	s.cancel = cancel
	s.mu.Unlock()

	return nctx, &Ticket{nav: n, session: session, slot: s, id: id, cancel: cancel}
}

// InFlight returns the name of the session's in-flight navigation.
func (n *Navigator) InFlight(session string) (string, bool) {
	n.mu.Lock()
	s, ok := n.slots[session]
	n.mu.Unlock()
	if !ok {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return "", false
	}
	return s.name, true
}

// Current reports whether no newer navigation of the session has begun.
func (t *Ticket) Current() bool {
	t.slot.mu.Lock()
	defer t.slot.mu.Unlock()
	return t.slot.current == t.id
}

// Commit runs fn only while the ticket is current, and returns ErrSuperseded
// otherwise. No navigation can begin for the session while fn runs, so a
// superseded navigation can never overwrite state written by a newer one.
func (t *Ticket) Commit(fn func() error) error {
	t.slot.mu.Lock()
	defer t.slot.mu.Unlock()
	if t.slot.current != t.id {
		return ErrSuperseded
	}
	return fn()
}

// Done releases the navigation's context. Safe to call more than once.
func (t *Ticket) Done() {
	t.done.Do(func() {
		t.cancel(context.Canceled)

		t.slot.mu.Lock()
		last := t.slot.current == t.id
		if last {
			t.slot.current = 0
			t.slot.cancel = nil
			t.slot.retired = true
			navigationsInFlight.Dec()
		}
		t.slot.mu.Unlock()

		if !last {
			return
		}
		t.nav.mu.Lock()
		if t.nav.slots[t.session] == t.slot {
			delete(t.nav.slots, t.session)
		}
		t.nav.mu.Unlock()
	})
}
