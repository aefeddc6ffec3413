package pokeapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Sternrassler/pokedex-web/pkg/client"
)

// hiddenTypes are listed by the upstream but have no members worth showing.
var hiddenTypes = map[string]bool{
	"unknown": true,
	"shadow":  true,
}

// API exposes the typed PokeAPI endpoints on top of the HTTP client.
type API struct {
	client *client.Client
}

// New creates the typed endpoint wrapper.
func New(c *client.Client) *API {
	return &API{client: c}
}

// ListPokemon fetches one page of creature references.
func (a *API) ListPokemon(ctx context.Context, limit, offset int) (*ResourceList, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0 (got %d)", limit)
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must be >= 0 (got %d)", offset)
	}

	var list ResourceList
	path := fmt.Sprintf("pokemon?limit=%d&offset=%d", limit, offset)
	if err := a.client.GetJSON(ctx, path, &list); err != nil {
		return nil, fmt.Errorf("list pokemon (limit %d, offset %d): %w", limit, offset, err)
	}
	return &list, nil
}

// Pokemon fetches a creature by name or numeric id.
func (a *API) Pokemon(ctx context.Context, nameOrID string) (*Pokemon, error) {
	var p Pokemon
	if err := a.client.GetJSON(ctx, "pokemon/"+pathKey(nameOrID), &p); err != nil {
		return nil, fmt.Errorf("fetch pokemon %q: %w", nameOrID, err)
	}
	return &p, nil
}

// PokemonByURL fetches a creature through a reference URL.
func (a *API) PokemonByURL(ctx context.Context, ref string) (*Pokemon, error) {
	var p Pokemon
	if err := a.client.GetJSON(ctx, ref, &p); err != nil {
		return nil, fmt.Errorf("fetch pokemon %s: %w", ref, err)
	}
	return &p, nil
}

// Species fetches a species by name or numeric id.
func (a *API) Species(ctx context.Context, nameOrID string) (*Species, error) {
	var s Species
	if err := a.client.GetJSON(ctx, "pokemon-species/"+pathKey(nameOrID), &s); err != nil {
		return nil, fmt.Errorf("fetch species %q: %w", nameOrID, err)
	}
	return &s, nil
}

// SpeciesByURL fetches a species through a reference URL.
func (a *API) SpeciesByURL(ctx context.Context, ref string) (*Species, error) {
	var s Species
	if err := a.client.GetJSON(ctx, ref, &s); err != nil {
		return nil, fmt.Errorf("fetch species %s: %w", ref, err)
	}
	return &s, nil
}

// EvolutionChain fetches an evolution chain through its reference URL.
func (a *API) EvolutionChain(ctx context.Context, ref string) (*EvolutionChain, error) {
	var c EvolutionChain
	if err := a.client.GetJSON(ctx, ref, &c); err != nil {
		return nil, fmt.Errorf("fetch evolution chain %s: %w", ref, err)
	}
	return &c, nil
}

// Ability fetches an ability through its reference URL.
func (a *API) Ability(ctx context.Context, ref string) (*Ability, error) {
	var ab Ability
	if err := a.client.GetJSON(ctx, ref, &ab); err != nil {
		return nil, fmt.Errorf("fetch ability %s: %w", ref, err)
	}
	return &ab, nil
}

// Type fetches a type and its member list by name.
func (a *API) Type(ctx context.Context, name string) (*Type, error) {
	var t Type
	if err := a.client.GetJSON(ctx, "type/"+pathKey(name), &t); err != nil {
		return nil, fmt.Errorf("fetch type %q: %w", name, err)
	}
	return &t, nil
}

// ListTypes fetches all type references, without the hidden ones.
func (a *API) ListTypes(ctx context.Context) ([]NamedResource, error) {
	var list ResourceList
	if err := a.client.GetJSON(ctx, "type", &list); err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}
	return VisibleTypes(list.Results), nil
}

// VisibleTypes drops the placeholder types the site never lists.
func VisibleTypes(types []NamedResource) []NamedResource {
	out := make([]NamedResource, 0, len(types))
	for _, t := range types {
		if hiddenTypes[t.Name] {
			continue
		}
		out = append(out, t)
	}
	return out
}

func pathKey(nameOrID string) string {
	return url.PathEscape(strings.ToLower(strings.TrimSpace(nameOrID)))
}
