package aggregate

import (
	"context"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"
)

const defaultDescription = "Pokémon details"

// Metadata builds the page title and description of a creature page from its
// species record. A failed species fetch yields a generic description and
// keeps the name as requested.
func (a *Aggregator) Metadata(ctx context.Context, name string) (*Metadata, error) {
	start := time.Now()

	species, err := a.source.Species(ctx, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			observe(flowMetadata, outcomeCancelled, start)
			return nil, ctxErr
		}
		observe(flowMetadata, outcomeFailed, start)
		a.logger.Debug().Err(err).Str("pokemon", name).Msg("Metadata without species")
		return &Metadata{
			Title:       "Pokémon: " + name,
			Description: fmt.Sprintf("Details about Pokémon %s in the Pokédex.", name),
		}, nil
	}
	observe(flowMetadata, outcomeOK, start)

	description := species.FlavorText(a.config.Language)
	if description == "" {
		description = defaultDescription
	}
	return &Metadata{
		Title:       "Pokémon: " + capitalize(name),
		Description: description,
	}, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
