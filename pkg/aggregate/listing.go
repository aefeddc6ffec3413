package aggregate

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Sternrassler/pokedex-web/pkg/fanout"
	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
)

// MaxOffset is the largest listing offset accepted.
const MaxOffset = 1 << 20

// Listing fetches one listing page and resolves every entry. The first page
// (offset 0) holds InitialPageSize creatures and every later page PageSize.
// A single failed entry fails the page.
func (a *Aggregator) Listing(ctx context.Context, offset int) (*Page, error) {
	if offset < 0 || offset > MaxOffset {
		return nil, fmt.Errorf("offset must be within [0, %d] (got %d)", MaxOffset, offset)
	}

	start := time.Now()
	limit := a.config.PageSize
	if offset == 0 {
		limit = a.config.InitialPageSize
	}

	list, err := a.source.ListPokemon(ctx, limit, offset)
	if err != nil {
		observe(flowListing, outcomeOf(ctx), start)
		return nil, err
	}

	creatures, err := fanout.Strict(ctx, a.batch(flowListing, limit), list.Results, a.resolveMember)
	if err != nil {
		observe(flowListing, outcomeOf(ctx), start)
		return nil, fmt.Errorf("listing offset %d: %w", offset, err)
	}
	observe(flowListing, outcomeOK, start)

	return &Page{
		Creatures:  summaries(creatures),
		Offset:     offset,
		NextOffset: offset + limit,
		HasMore:    offset < list.Count-limit,
	}, nil
}

// FilterSummaries keeps the creatures whose name contains search, ignoring
// case, and that carry typeName. Empty criteria match everything.
func FilterSummaries(list []Summary, search, typeName string) []Summary {
	search = strings.ToLower(search)
	out := make([]Summary, 0, len(list))
	for _, s := range list {
		if !strings.Contains(strings.ToLower(s.Name), search) {
			continue
		}
		if typeName != "" && !slices.Contains(s.Types, typeName) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// TypeListing resolves the first TypeListingCap members of a type. Members
// that fail to resolve are left out. A failed type fetch fails the listing.
func (a *Aggregator) TypeListing(ctx context.Context, typeName string) (*TypeListing, error) {
	start := time.Now()

	t, err := a.source.Type(ctx, typeName)
	if err != nil {
		observe(flowTypeListing, outcomeOf(ctx), start)
		return nil, err
	}

	creatures, err := fanout.Tolerant(ctx, a.batch(flowTypeListing, a.config.TypeListingCap), t.Members(0), a.resolveMember)
	if err != nil {
		observe(flowTypeListing, outcomeOf(ctx), start)
		return nil, err
	}
	observe(flowTypeListing, outcomeOK, start)

	return &TypeListing{Type: t.Name, Creatures: summaries(creatures)}, nil
}

// Types returns the names of the listed types.
func (a *Aggregator) Types(ctx context.Context) ([]string, error) {
	refs, err := a.source.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return names, nil
}

// RelatedSet is the related-creatures panel of a detail view.
type RelatedSet struct {
	Type      string    `json:"type"`
	Creatures []Summary `json:"creatures"`
}

// Related re-runs the related-creatures step of a detail aggregation for the
// selected type. An empty typeName selects the creature's own first type. A
// creature without types and no selection yields an empty set.
func (a *Aggregator) Related(ctx context.Context, typeName string, creature *pokeapi.Pokemon) (*RelatedSet, error) {
	start := time.Now()

	if typeName == "" && creature != nil {
		typeName, _ = creature.FirstType()
	}
	if typeName == "" {
		observe(flowRelated, outcomeOK, start)
		return &RelatedSet{Creatures: []Summary{}}, nil
	}

	related, err := a.related(ctx, typeName)
	if err != nil {
		observe(flowRelated, outcomeOf(ctx), start)
		return nil, fmt.Errorf("related type %q: %w", typeName, err)
	}
	observe(flowRelated, outcomeOK, start)

	return &RelatedSet{Type: typeName, Creatures: related}, nil
}

func (a *Aggregator) related(ctx context.Context, typeName string) ([]Summary, error) {
	t, err := a.source.Type(ctx, typeName)
	if err != nil {
		return nil, err
	}

	creatures, err := fanout.Tolerant(ctx, a.batch(flowRelated, a.config.RelatedCap), t.Members(0), a.resolveMember)
	if err != nil {
		return nil, err
	}

	// member lists can name records whose current types moved on
	out := make([]Summary, 0, len(creatures))
	for _, p := range creatures {
		if p.HasType(typeName) {
			out = append(out, NewSummary(p))
		}
	}
	return out, nil
}

// resolveMember fetches the creature a reference item points at.
func (a *Aggregator) resolveMember(ctx context.Context, ref pokeapi.NamedResource) (*pokeapi.Pokemon, error) {
	if ref.URL != "" {
		return a.source.PokemonByURL(ctx, ref.URL)
	}
	return a.source.Pokemon(ctx, ref.Name)
}

func summaries(records []*pokeapi.Pokemon) []Summary {
	out := make([]Summary, 0, len(records))
	for _, p := range records {
		out = append(out, NewSummary(p))
	}
	return out
}

func outcomeOf(ctx context.Context) string {
	if ctx.Err() != nil {
		return outcomeCancelled
	}
	return outcomeFailed
}

// Creature fetches the base record of a creature.
func (a *Aggregator) Creature(ctx context.Context, nameOrID string) (*pokeapi.Pokemon, error) {
	return a.source.Pokemon(ctx, nameOrID)
}
