// Package pokeapi defines the upstream PokeAPI resource records and the typed
// endpoints used to fetch them.
package pokeapi

import (
	"errors"
	"fmt"
	"strings"
)

// ArtworkBaseURL serves official artwork by numeric id.
const ArtworkBaseURL = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/other/official-artwork"

// NamedResource is a lightweight reference to a detail resource.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ResourceList is one page of a paginated collection endpoint.
type ResourceList struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

// Validate implements client.Validator.
func (l *ResourceList) Validate() error {
	for i, r := range l.Results {
		if r.Name == "" {
			return fmt.Errorf("results[%d]: missing name", i)
		}
	}
	return nil
}

// TypeSlot is one elemental type of a creature.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// StatValue is one base stat of a creature.
type StatValue struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

// AbilitySlot references an ability of a creature.
type AbilitySlot struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

// MoveSlot references a move a creature can learn.
type MoveSlot struct {
	Move NamedResource `json:"move"`
}

// Artwork holds a single front image.
type Artwork struct {
	FrontDefault string `json:"front_default"`
}

// OtherSprites holds the alternative sprite sets.
type OtherSprites struct {
	OfficialArtwork Artwork `json:"official-artwork"`
}

// Sprites holds the sprite sets of a creature.
type Sprites struct {
	FrontDefault string       `json:"front_default"`
	Other        OtherSprites `json:"other"`
}

// Pokemon is the full creature record.
type Pokemon struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Height    int           `json:"height"`
	Weight    int           `json:"weight"`
	Types     []TypeSlot    `json:"types"`
	Stats     []StatValue   `json:"stats"`
	Abilities []AbilitySlot `json:"abilities"`
	Moves     []MoveSlot    `json:"moves"`
	Sprites   Sprites       `json:"sprites"`
	Species   NamedResource `json:"species"`
}

// Validate implements client.Validator.
func (p *Pokemon) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("pokemon %q: invalid id %d", p.Name, p.ID)
	}
	if p.Name == "" {
		return errors.New("pokemon: missing name")
	}
	for i, t := range p.Types {
		if t.Type.Name == "" {
			return fmt.Errorf("pokemon %q: types[%d] missing name", p.Name, i)
		}
	}
	for i, a := range p.Abilities {
		if a.Ability.Name == "" {
			return fmt.Errorf("pokemon %q: abilities[%d] missing name", p.Name, i)
		}
	}
	return nil
}

// TypeNames returns the creature's type names in slot order.
func (p *Pokemon) TypeNames() []string {
	names := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		names = append(names, t.Type.Name)
	}
	return names
}

// FirstType returns the name of the creature's first type.
func (p *Pokemon) FirstType() (string, bool) {
	if len(p.Types) == 0 {
		return "", false
	}
	return p.Types[0].Type.Name, true
}

// HasType reports whether the creature has the named type.
func (p *Pokemon) HasType(name string) bool {
	for _, t := range p.Types {
		if t.Type.Name == name {
			return true
		}
	}
	return false
}

// ArtworkURL returns the official artwork image, falling back to the CDN
// URL derived from the id when the record carries none.
func (p *Pokemon) ArtworkURL() string {
	if u := p.Sprites.Other.OfficialArtwork.FrontDefault; u != "" {
		return u
	}
	return ArtworkURLForID(p.ID)
}

// ArtworkURLForID returns the official artwork URL for a numeric id.
func ArtworkURLForID(id int) string {
	return fmt.Sprintf("%s/%d.png", ArtworkBaseURL, id)
}

// FlavorTextEntry is a localized description.
type FlavorTextEntry struct {
	FlavorText string        `json:"flavor_text"`
	Language   NamedResource `json:"language"`
	Version    NamedResource `json:"version"`
}

// Variety is one alternate form of a species.
type Variety struct {
	IsDefault bool          `json:"is_default"`
	Pokemon   NamedResource `json:"pokemon"`
}

// APIResource is an unnamed reference.
type APIResource struct {
	URL string `json:"url"`
}

// Species is the taxonomic record grouping varieties and evolution data.
type Species struct {
	ID                int               `json:"id"`
	Name              string            `json:"name"`
	FlavorTextEntries []FlavorTextEntry `json:"flavor_text_entries"`
	Varieties         []Variety         `json:"varieties"`
	EvolutionChain    *APIResource      `json:"evolution_chain"`
}

// Validate implements client.Validator.
func (s *Species) Validate() error {
	if s.Name == "" {
		return errors.New("species: missing name")
	}
	for i, v := range s.Varieties {
		if v.Pokemon.URL == "" {
			return fmt.Errorf("species %q: varieties[%d] missing url", s.Name, i)
		}
	}
	return nil
}

var flavorControl = strings.NewReplacer("\f", " ", "\n", " ")

// FlavorText returns the first flavor text in the given language with form
// feeds and newlines replaced by spaces, or "" if there is none.
func (s *Species) FlavorText(lang string) string {
	for _, f := range s.FlavorTextEntries {
		if f.Language.Name == lang {
			return flavorControl.Replace(f.FlavorText)
		}
	}
	return ""
}

// ChainLink is one node of an evolution chain as sent by the upstream.
type ChainLink struct {
	Species   NamedResource `json:"species"`
	EvolvesTo []ChainLink   `json:"evolves_to"`
	IsBaby    bool          `json:"is_baby"`
}

// EvolutionChain is the evolution tree of a species family.
type EvolutionChain struct {
	ID    int       `json:"id"`
	Chain ChainLink `json:"chain"`
}

// Validate implements client.Validator.
func (c *EvolutionChain) Validate() error {
	stack := []*ChainLink{&c.Chain}
	for len(stack) > 0 {
		link := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if link.Species.Name == "" {
			return fmt.Errorf("evolution chain %d: link missing species name", c.ID)
		}
		for i := range link.EvolvesTo {
			stack = append(stack, &link.EvolvesTo[i])
		}
	}
	return nil
}

// EffectEntry is a localized ability effect.
type EffectEntry struct {
	Effect      string        `json:"effect"`
	ShortEffect string        `json:"short_effect"`
	Language    NamedResource `json:"language"`
}

// Ability is an ability record.
type Ability struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	EffectEntries []EffectEntry `json:"effect_entries"`
}

// Validate implements client.Validator.
func (a *Ability) Validate() error {
	if a.Name == "" {
		return errors.New("ability: missing name")
	}
	return nil
}

// Effects returns the effect texts in the given language.
func (a *Ability) Effects(lang string) []string {
	var out []string
	for _, e := range a.EffectEntries {
		if e.Language.Name == lang {
			out = append(out, e.Effect)
		}
	}
	return out
}

// TypeMember is one creature listed under a type.
type TypeMember struct {
	Slot    int           `json:"slot"`
	Pokemon NamedResource `json:"pokemon"`
}

// Type is an elemental type with its member list.
type Type struct {
	ID      int          `json:"id"`
	Name    string       `json:"name"`
	Pokemon []TypeMember `json:"pokemon"`
}

// Validate implements client.Validator.
func (t *Type) Validate() error {
	if t.Name == "" {
		return errors.New("type: missing name")
	}
	for i, m := range t.Pokemon {
		if m.Pokemon.Name == "" {
			return fmt.Errorf("type %q: pokemon[%d] missing name", t.Name, i)
		}
	}
	return nil
}

// Members returns the first n member references (all when n <= 0).
func (t *Type) Members(n int) []NamedResource {
	members := t.Pokemon
	if n > 0 && len(members) > n {
		members = members[:n]
	}
	out := make([]NamedResource, 0, len(members))
	for _, m := range members {
		out = append(out, m.Pokemon)
	}
	return out
}
