// Package testutil provides testing utilities for the pokedex service.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
)

// APIPrefix is the path root the mock serves, mirroring PokeAPI v2.
const APIPrefix = "/api/v2"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// PokemonFixture describes a creature registered with the mock.
type PokemonFixture struct {
	ID        int
	Name      string
	Types     []string
	Abilities []string
	Species   string
	Moves     int
	Height    int
	Weight    int
}

// SpeciesFixture describes a species registered with the mock.
type SpeciesFixture struct {
	ID        int
	Name      string
	Varieties []string
	ChainID   int
	Flavor    string
}

// MockPokeAPI is a configurable in-process PokeAPI for tests.
type MockPokeAPI struct {
	server *httptest.Server

	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	bodies   map[string][]byte
	pokemon  []string
	types    []string

	// Tracking
	requestCount      int
	pathCounts        map[string]int
	lastRequestHeader http.Header
}

// NewMockPokeAPI creates and starts a new mock upstream.
func NewMockPokeAPI() *MockPokeAPI {
	mock := &MockPokeAPI{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		bodies:     make(map[string][]byte),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := normalize(r.URL.Path)

		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[path]++
		mock.lastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r, path)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockPokeAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the API root to configure clients with.
func (m *MockPokeAPI) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockPokeAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockPokeAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastRequestHeader = nil
}

// SetHandler sets a custom handler for a path relative to the API root,
// e.g. "/pokemon/1".
func (m *MockPokeAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[normalize(APIPrefix+path)] = handler
}

// SetResponse configures a fixed response for a path relative to the API root.
func (m *MockPokeAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetStatus makes a path answer with a bare status code.
func (m *MockPokeAPI) SetStatus(path string, status int) {
	m.SetResponse(path, MockResponse{StatusCode: status})
}

// RequestCount returns the number of requests made to the server.
func (m *MockPokeAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests for a path relative to the API root.
func (m *MockPokeAPI) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[normalize(APIPrefix+path)]
}

// CountPrefix returns the number of requests whose path starts with the given
// prefix relative to the API root, e.g. "/pokemon/".
func (m *MockPokeAPI) CountPrefix(prefix string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	full := APIPrefix + prefix
	total := 0
	for p, n := range m.pathCounts {
		if strings.HasPrefix(p, full) {
			total += n
		}
	}
	return total
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockPokeAPI) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// Ref returns the absolute reference URL the upstream would hand out.
func (m *MockPokeAPI) Ref(kind, key string) string {
	return fmt.Sprintf("%s/%s/%s/", m.BaseURL(), kind, key)
}

// AddPokemon registers a creature under both its id and name and appends it
// to the paginated listing.
func (m *MockPokeAPI) AddPokemon(f PokemonFixture) pokeapi.Pokemon {
	species := f.Species
	if species == "" {
		species = f.Name
	}

	p := pokeapi.Pokemon{
		ID:      f.ID,
		Name:    f.Name,
		Height:  f.Height,
		Weight:  f.Weight,
		Species: pokeapi.NamedResource{Name: species, URL: m.Ref("pokemon-species", species)},
	}
	p.Sprites.Other.OfficialArtwork.FrontDefault = pokeapi.ArtworkURLForID(f.ID)

	for i, t := range f.Types {
		p.Types = append(p.Types, pokeapi.TypeSlot{
			Slot: i + 1,
			Type: pokeapi.NamedResource{Name: t, URL: m.Ref("type", t)},
		})
	}
	for i, a := range f.Abilities {
		p.Abilities = append(p.Abilities, pokeapi.AbilitySlot{
			Ability: pokeapi.NamedResource{Name: a, URL: m.Ref("ability", a)},
			Slot:    i + 1,
		})
	}
	for _, stat := range []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"} {
		p.Stats = append(p.Stats, pokeapi.StatValue{
			BaseStat: 40 + f.ID,
			Stat:     pokeapi.NamedResource{Name: stat, URL: m.Ref("stat", stat)},
		})
	}
	for i := 0; i < f.Moves; i++ {
		name := fmt.Sprintf("move-%d", i+1)
		p.Moves = append(p.Moves, pokeapi.MoveSlot{
			Move: pokeapi.NamedResource{Name: name, URL: m.Ref("move", name)},
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked("/pokemon/"+strconv.Itoa(f.ID), p)
	m.putLocked("/pokemon/"+f.Name, p)
	m.pokemon = append(m.pokemon, f.Name)
	return p
}

// AddSpecies registers a species under both its id and name.
func (m *MockPokeAPI) AddSpecies(f SpeciesFixture) pokeapi.Species {
	s := pokeapi.Species{
		ID:   f.ID,
		Name: f.Name,
	}
	if f.Flavor != "" {
		s.FlavorTextEntries = []pokeapi.FlavorTextEntry{
			{FlavorText: "Une graine étrange.", Language: pokeapi.NamedResource{Name: "fr"}},
			{FlavorText: f.Flavor, Language: pokeapi.NamedResource{Name: "en"}},
		}
	}
	for i, v := range f.Varieties {
		s.Varieties = append(s.Varieties, pokeapi.Variety{
			IsDefault: i == 0,
			Pokemon:   pokeapi.NamedResource{Name: v, URL: m.Ref("pokemon", v)},
		})
	}
	if f.ChainID > 0 {
		s.EvolutionChain = &pokeapi.APIResource{URL: m.Ref("evolution-chain", strconv.Itoa(f.ChainID))}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID > 0 {
		m.putLocked("/pokemon-species/"+strconv.Itoa(f.ID), s)
	}
	m.putLocked("/pokemon-species/"+f.Name, s)
	return s
}

// AddEvolutionChain registers an evolution chain by id.
func (m *MockPokeAPI) AddEvolutionChain(id int, root pokeapi.ChainLink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked("/evolution-chain/"+strconv.Itoa(id), pokeapi.EvolutionChain{ID: id, Chain: root})
}

// Link builds an evolution chain node.
func (m *MockPokeAPI) Link(species string, next ...pokeapi.ChainLink) pokeapi.ChainLink {
	return pokeapi.ChainLink{
		Species:   pokeapi.NamedResource{Name: species, URL: m.Ref("pokemon-species", species)},
		EvolvesTo: next,
	}
}

// AddAbility registers an ability with one English effect entry.
func (m *MockPokeAPI) AddAbility(name, effect string) {
	a := pokeapi.Ability{
		Name: name,
		EffectEntries: []pokeapi.EffectEntry{
			{Effect: effect, ShortEffect: effect, Language: pokeapi.NamedResource{Name: "en"}},
			{Effect: "Wirkung: " + effect, Language: pokeapi.NamedResource{Name: "de"}},
		},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked("/ability/"+name, a)
}

// AddType registers a type with its members, in order, and appends it to
// the type listing.
func (m *MockPokeAPI) AddType(name string, members []string) {
	t := pokeapi.Type{Name: name}
	for i, member := range members {
		t.Pokemon = append(t.Pokemon, pokeapi.TypeMember{
			Slot:    i%2 + 1,
			Pokemon: pokeapi.NamedResource{Name: member, URL: m.Ref("pokemon", member)},
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked("/type/"+name, t)
	m.types = append(m.types, name)
}

func (m *MockPokeAPI) putLocked(path string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal fixture %s: %v", path, err))
	}
	m.bodies[normalize(APIPrefix+path)] = body
}

// defaultHandler serves registered fixtures and the two collection endpoints.
func (m *MockPokeAPI) defaultHandler(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	switch path {
	case APIPrefix + "/pokemon":
		m.serveList(w, r, "pokemon", func() []string { return m.pokemon })
		return
	case APIPrefix + "/type":
		m.serveList(w, r, "type", func() []string { return m.types })
		return
	}

	m.mu.RLock()
	body, ok := m.bodies[path]
	m.mu.RUnlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not Found"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (m *MockPokeAPI) serveList(w http.ResponseWriter, r *http.Request, kind string, names func() []string) {
	m.mu.RLock()
	all := append([]string(nil), names()...)
	m.mu.RUnlock()

	limit := len(all)
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 0 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	list := pokeapi.ResourceList{Count: len(all), Results: []pokeapi.NamedResource{}}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		list.Results = append(list.Results, pokeapi.NamedResource{Name: all[i], URL: m.Ref(kind, all[i])})
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(list)
}

func normalize(path string) string {
	return strings.TrimSuffix(path, "/")
}
