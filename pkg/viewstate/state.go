// Package viewstate keeps per-visitor navigation state between detail
// requests and serializes concurrent navigations of one visitor.
package viewstate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
)

var (
	// ErrNotFound indicates no state is stored for the session.
	ErrNotFound = errors.New("view state not found")

	// ErrInvalidState indicates a stored entry could not be decoded.
	ErrInvalidState = errors.New("invalid view state")

	// ErrSuperseded is the cancellation cause of a navigation replaced by a
	// newer one of the same session.
	ErrSuperseded = errors.New("navigation superseded")
)

// KeyPrefix namespaces view state keys in shared stores.
const KeyPrefix = "pokedex:view"

var (
	stateHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_viewstate_hits_total",
		Help: "Total view state lookups that found an entry, by backend",
	}, []string{"backend"})

	stateMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_viewstate_misses_total",
		Help: "Total view state lookups without an entry, by backend",
	}, []string{"backend"})

	stateErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_viewstate_errors_total",
		Help: "Total view state operation errors by operation",
	}, []string{"operation"}) // "get", "put", "delete"

	stateEntryBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pokedex_viewstate_entry_bytes",
		Help:    "Encoded size of stored view state entries",
		Buckets: prometheus.ExponentialBuckets(512, 2, 10),
	})
)

// State is what a visitor's previous detail navigation left behind.
type State struct {
	// LastName is the identifier of the last completed detail navigation.
	LastName string `json:"last_name"`

	// Forms are the variety records of that navigation, nil where the
	// variety could not be resolved.
	Forms []*pokeapi.Pokemon `json:"forms"`

	// UpdatedAt is when the state was written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists view state per session.
type Store interface {
	// Get returns ErrNotFound when no live state exists for the session.
	Get(ctx context.Context, sessionID string) (*State, error)
	Put(ctx context.Context, sessionID string, state *State) error
	Delete(ctx context.Context, sessionID string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// Key returns the deterministic store key of a session.
//
// Example:
//
//	pokedex:view:0b4c3c8e-7f7a-4a55-9a43-3f5f0c0c9e2d
func Key(sessionID string) string {
	return KeyPrefix + ":" + strings.TrimSpace(sessionID)
}
