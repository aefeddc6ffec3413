package aggregate

import (
	"strconv"
	"strings"

	"github.com/Sternrassler/pokedex-web/pkg/evolution"
	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
)

// State is the lifecycle state of a detail view.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateNotFound State = "not_found"
)

// NotFoundMessage is shown for any detail that could not be assembled.
const NotFoundMessage = "No data found for this Pokémon!"

// Summary is the listing-grid view of a creature.
type Summary struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Types      []string `json:"types"`
	ArtworkURL string   `json:"artwork_url"`
}

// NewSummary projects a creature record onto its listing view.
func NewSummary(p *pokeapi.Pokemon) Summary {
	return Summary{
		ID:         p.ID,
		Name:       p.Name,
		Types:      p.TypeNames(),
		ArtworkURL: p.ArtworkURL(),
	}
}

// DisplayName returns the name with dashes replaced by spaces.
func (s Summary) DisplayName() string {
	return strings.ReplaceAll(s.Name, "-", " ")
}

// Stat is one named base stat.
type Stat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Creature is the full detail view of a creature record.
type Creature struct {
	Summary
	Height    int      `json:"height"`
	Weight    int      `json:"weight"`
	Stats     []Stat   `json:"stats"`
	Abilities []string `json:"abilities"`
	Moves     []string `json:"moves"`
}

func newCreature(p *pokeapi.Pokemon, moveCap int) *Creature {
	c := &Creature{
		Summary:   NewSummary(p),
		Height:    p.Height,
		Weight:    p.Weight,
		Stats:     make([]Stat, 0, len(p.Stats)),
		Abilities: make([]string, 0, len(p.Abilities)),
		Moves:     make([]string, 0, min(len(p.Moves), moveCap)),
	}
	for _, s := range p.Stats {
		c.Stats = append(c.Stats, Stat{Name: s.Stat.Name, Value: s.BaseStat})
	}
	for _, ab := range p.Abilities {
		c.Abilities = append(c.Abilities, ab.Ability.Name)
	}
	for i, m := range p.Moves {
		if i == moveCap {
			break
		}
		c.Moves = append(c.Moves, m.Move.Name)
	}
	return c
}

// AbilityDetail is an ability with its localized effect texts.
type AbilityDetail struct {
	Name    string   `json:"name"`
	Effects []string `json:"effects"`
}

// Detail is the composite result of one detail aggregation. It is built
// once and never mutated after it is returned.
type Detail struct {
	Name  string `json:"name"`
	State State  `json:"state"`

	Creature *Creature `json:"creature,omitempty"`
	Flavor   string    `json:"flavor,omitempty"`

	// Forms holds one entry per species variety; nil marks a variety
	// whose record could not be fetched.
	Forms []*Summary `json:"forms,omitempty"`

	Evolution   []evolution.Stage `json:"evolution,omitempty"`
	Abilities   []AbilityDetail   `json:"abilities,omitempty"`
	Related     []Summary         `json:"related,omitempty"`
	RelatedType string            `json:"related_type,omitempty"`

	// Message and Fallback are set on not_found only.
	Message  string   `json:"message,omitempty"`
	Fallback *Summary `json:"fallback,omitempty"`

	// FormRecords are the resolved variety records in Forms order, nil
	// where resolution failed. Later navigations search them for a fallback.
	// A not_found Detail keeps the records resolved before the failing step.
	FormRecords []*pokeapi.Pokemon `json:"-"`

	// Err is the cause of a not_found state.
	Err error `json:"-"`
}

// Ready reports whether the aggregation completed.
func (d *Detail) Ready() bool {
	return d.State == StateReady
}

// FindForm returns the first known record whose name or numeric id equals
// the requested identifier.
func FindForm(known []*pokeapi.Pokemon, nameOrID string) *pokeapi.Pokemon {
	key := strings.ToLower(strings.TrimSpace(nameOrID))
	for _, p := range known {
		if p == nil {
			continue
		}
		if p.Name == key || strconv.Itoa(p.ID) == key {
			return p
		}
	}
	return nil
}

// TypeListing is one type with its resolved members.
type TypeListing struct {
	Type      string    `json:"type"`
	Creatures []Summary `json:"creatures"`
}

// Page is one listing page.
type Page struct {
	Creatures []Summary `json:"creatures"`
	Offset    int       `json:"offset"`
	// NextOffset is where the following "load more" page starts.
	NextOffset int `json:"next_offset"`
	// HasMore is false once the upstream collection is exhausted.
	HasMore bool `json:"has_more"`
}

// Metadata is the page title and description of a creature page.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
