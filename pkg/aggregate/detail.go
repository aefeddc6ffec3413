package aggregate

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Sternrassler/pokedex-web/pkg/evolution"
	"github.com/Sternrassler/pokedex-web/pkg/fanout"
	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
)

// Detail assembles the detail view of one creature.
//
// The steps run in a fixed order, each one starting only after the data it
// depends on is available:
//  1. base record by name or id
//  2. species record, through the base record's species reference
//  3. every variety record, concurrently; failures stay as nil forms
//  4. the evolution chain, flattened, with one id lookup per species name;
//     failed lookups leave the id at 0
//  5. every ability detail, concurrently; any failure aborts
//  6. the members of the first type, capped, concurrently; failures dropped
//
// Failure of steps 1, 2, the chain fetch in 4, 5, or the type fetch in 6
// yields a not_found Detail whose Fallback is taken from the variety records
// of earlier navigations (known) or those resolved by step 3 of this one,
// when one matches the requested name or id. The not_found Detail carries
// the records step 3 resolved in FormRecords.
//
// The returned error is non-nil only when ctx is done.
func (a *Aggregator) Detail(ctx context.Context, name string, known []*pokeapi.Pokemon) (*Detail, error) {
	start := time.Now()
	logger := a.logger.With().Str("pokemon", name).Logger()

	d, forms, err := a.detail(ctx, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			observe(flowDetail, outcomeCancelled, start)
			logger.Debug().Err(ctxErr).Msg("Detail aggregation cancelled")
			return nil, ctxErr
		}

		nf := notFound(name, slices.Concat(known, forms), err)
		nf.FormRecords = forms
		observe(flowDetail, string(StateNotFound), start)
		logger.Warn().
			Err(err).
			Bool("fallback", nf.Fallback != nil).
			Msg("Detail aggregation failed")
		return nf, nil
	}

	observe(flowDetail, string(StateReady), start)
	logger.Debug().
		Int("forms", len(d.Forms)).
		Int("evolution", len(d.Evolution)).
		Int("related", len(d.Related)).
		Dur("duration", time.Since(start)).
		Msg("Detail aggregated")
	return d, nil
}

// detail runs the aggregation steps. On failure it still returns the variety
// records resolved before the failing step.
func (a *Aggregator) detail(ctx context.Context, name string) (*Detail, []*pokeapi.Pokemon, error) {
	base, err := a.source.Pokemon(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("base record: %w", err)
	}

	species, err := a.speciesOf(ctx, base)
	if err != nil {
		return nil, nil, fmt.Errorf("species record: %w", err)
	}

	d := &Detail{
		Name:     name,
		State:    StateReady,
		Creature: newCreature(base, a.config.MoveCap),
		Flavor:   species.FlavorText(a.config.Language),
	}

	if len(species.Varieties) > 0 {
		if err := a.resolveForms(ctx, d, species.Varieties); err != nil {
			return nil, nil, err
		}
	}

	if species.EvolutionChain != nil && species.EvolutionChain.URL != "" {
		stages, err := a.evolution(ctx, species.EvolutionChain.URL)
		if err != nil {
			return nil, d.FormRecords, err
		}
		d.Evolution = stages
	}

	abilities, err := fanout.Strict(ctx, a.batch("abilities", 0), base.Abilities,
		func(ctx context.Context, slot pokeapi.AbilitySlot) (AbilityDetail, error) {
			ab, err := a.source.Ability(ctx, slot.Ability.URL)
			if err != nil {
				return AbilityDetail{}, err
			}
			return AbilityDetail{Name: ab.Name, Effects: ab.Effects(a.config.Language)}, nil
		})
	if err != nil {
		return nil, d.FormRecords, fmt.Errorf("%w: %w", ErrAbilityDetail, err)
	}
	d.Abilities = abilities

	if first, ok := base.FirstType(); ok {
		related, err := a.related(ctx, first)
		if err != nil {
			return nil, d.FormRecords, fmt.Errorf("related type %q: %w", first, err)
		}
		d.Related = related
		d.RelatedType = first
	}

	return d, d.FormRecords, nil
}

// speciesOf follows the base record's species reference, or looks the
// species up by the creature's name when the record carries none.
func (a *Aggregator) speciesOf(ctx context.Context, base *pokeapi.Pokemon) (*pokeapi.Species, error) {
	if base.Species.URL != "" {
		return a.source.SpeciesByURL(ctx, base.Species.URL)
	}
	return a.source.Species(ctx, base.Name)
}

func (a *Aggregator) resolveForms(ctx context.Context, d *Detail, varieties []pokeapi.Variety) error {
	slots, err := fanout.Placeholder(ctx, a.batch("forms", 0), varieties,
		func(ctx context.Context, v pokeapi.Variety) (*pokeapi.Pokemon, error) {
			return a.source.PokemonByURL(ctx, v.Pokemon.URL)
		})
	if err != nil {
		return err
	}

	d.Forms = make([]*Summary, len(slots))
	d.FormRecords = make([]*pokeapi.Pokemon, len(slots))
	for i, s := range slots {
		if !s.OK() {
			continue
		}
		sum := NewSummary(s.Value)
		d.Forms[i] = &sum
		d.FormRecords[i] = s.Value
	}
	return nil
}

func (a *Aggregator) evolution(ctx context.Context, ref string) ([]evolution.Stage, error) {
	chain, err := a.source.EvolutionChain(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("evolution chain: %w", err)
	}

	names := evolution.Flatten(evolution.FromChain(chain.Chain))
	ids, err := fanout.Placeholder(ctx, a.batch("evolution", 0), names,
		func(ctx context.Context, name string) (int, error) {
			p, err := a.source.Pokemon(ctx, name)
			if err != nil {
				return 0, err
			}
			return p.ID, nil
		})
	if err != nil {
		return nil, err
	}

	stages := make([]evolution.Stage, len(names))
	for i, n := range names {
		stages[i] = evolution.Stage{Name: n, ID: ids[i].Value}
	}
	return stages, nil
}

func notFound(name string, known []*pokeapi.Pokemon, cause error) *Detail {
	d := &Detail{
		Name:    name,
		State:   StateNotFound,
		Message: NotFoundMessage,
		Err:     cause,
	}
	if p := FindForm(known, name); p != nil {
		s := NewSummary(p)
		d.Fallback = &s
	}
	return d
}
