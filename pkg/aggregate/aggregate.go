// Package aggregate assembles the site's view models from chained upstream
// fetches: the listing pages, the per-type listing and the creature detail.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokedex-web/pkg/fanout"
	"github.com/Sternrassler/pokedex-web/pkg/logging"
	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
)

var (
	aggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_aggregations_total",
		Help: "Total aggregations by flow and resulting state",
	}, []string{"flow", "state"})

	aggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokedex_aggregation_duration_seconds",
		Help:    "Aggregation duration in seconds by flow",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"flow"})
)

// Flow labels.
const (
	flowDetail      = "detail"
	flowRelated     = "related"
	flowListing     = "listing"
	flowTypeListing = "type_listing"
	flowMetadata    = "metadata"
)

// ErrAbilityDetail marks a detail aggregation aborted by a failed ability fetch.
var ErrAbilityDetail = errors.New("ability detail unavailable")

// Source is the set of upstream endpoints the aggregator reads.
// *pokeapi.API implements it.
type Source interface {
	ListPokemon(ctx context.Context, limit, offset int) (*pokeapi.ResourceList, error)
	Pokemon(ctx context.Context, nameOrID string) (*pokeapi.Pokemon, error)
	PokemonByURL(ctx context.Context, ref string) (*pokeapi.Pokemon, error)
	Species(ctx context.Context, nameOrID string) (*pokeapi.Species, error)
	SpeciesByURL(ctx context.Context, ref string) (*pokeapi.Species, error)
	EvolutionChain(ctx context.Context, ref string) (*pokeapi.EvolutionChain, error)
	Ability(ctx context.Context, ref string) (*pokeapi.Ability, error)
	Type(ctx context.Context, name string) (*pokeapi.Type, error)
	ListTypes(ctx context.Context) ([]pokeapi.NamedResource, error)
}

// Config holds aggregator configuration.
type Config struct {
	// InitialPageSize is the listing size when offset is 0.
	InitialPageSize int

	// PageSize is the listing size for every later "load more" page.
	PageSize int

	// TypeListingCap bounds the members resolved for a type listing.
	TypeListingCap int

	// RelatedCap bounds the related creatures resolved for a detail view.
	RelatedCap int

	// MoveCap bounds the moves kept on a creature detail.
	MoveCap int

	// MaxConcurrency bounds in-flight fetches per fan-out batch (0 = unbounded).
	MaxConcurrency int

	// ItemTimeout bounds each fan-out fetch (0 = none).
	ItemTimeout time.Duration

	// Language selects flavor and effect texts.
	Language string
}

// DefaultConfig returns the site's list caps with unbounded fan-out.
func DefaultConfig() Config {
	return Config{
		InitialPageSize: 300,
		PageSize:        20,
		TypeListingCap:  30,
		RelatedCap:      10,
		MoveCap:         10,
		MaxConcurrency:  0,
		ItemTimeout:     0,
		Language:        "en",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	caps := []struct {
		name  string
		value int
	}{
		{"initial page size", c.InitialPageSize},
		{"page size", c.PageSize},
		{"type listing cap", c.TypeListingCap},
		{"related cap", c.RelatedCap},
		{"move cap", c.MoveCap},
	}
	for _, cp := range caps {
		if cp.value <= 0 {
			return fmt.Errorf("%s must be > 0 (got %d)", cp.name, cp.value)
		}
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max concurrency must be >= 0 (got %d)", c.MaxConcurrency)
	}
	if c.ItemTimeout < 0 {
		return fmt.Errorf("item timeout must be >= 0 (got %s)", c.ItemTimeout)
	}
	if strings.TrimSpace(c.Language) == "" {
		return errors.New("language is required")
	}
	return nil
}

// Aggregator runs the fetch-orchestration flows.
type Aggregator struct {
	source Source
	config Config
	logger zerolog.Logger
}

// New creates an aggregator over the given upstream.
func New(source Source, cfg Config) (*Aggregator, error) {
	if source == nil {
		return nil, errors.New("source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid aggregator config: %w", err)
	}
	return &Aggregator{
		source: source,
		config: cfg,
		logger: logging.NewLogger("aggregate"),
	}, nil
}

// Config returns the active configuration.
func (a *Aggregator) Config() Config {
	return a.config
}

func (a *Aggregator) batch(name string, limit int) fanout.Config {
	return fanout.Config{
		Name:           name,
		Cap:            limit,
		MaxConcurrency: a.config.MaxConcurrency,
		Timeout:        a.config.ItemTimeout,
	}
}

// Outcome labels for flows that do not produce a Detail.
const (
	outcomeOK        = "ok"
	outcomeFailed    = "failed"
	outcomeCancelled = "cancelled"
)

func observe(flow, outcome string, start time.Time) {
	aggregationsTotal.WithLabelValues(flow, outcome).Inc()
	aggregationDuration.WithLabelValues(flow).Observe(time.Since(start).Seconds())
}
