package pokeapi

import (
	"strings"
	"testing"
)

func TestPokemon_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Pokemon
		wantErr string
	}{
		{name: "valid", p: Pokemon{ID: 1, Name: "bulbasaur"}},
		{name: "zero id", p: Pokemon{Name: "bulbasaur"}, wantErr: "invalid id 0"},
		{name: "missing name", p: Pokemon{ID: 1}, wantErr: "missing name"},
		{
			name:    "unnamed type",
			p:       Pokemon{ID: 1, Name: "bulbasaur", Types: []TypeSlot{{Slot: 1}}},
			wantErr: "types[0] missing name",
		},
		{
			name:    "unnamed ability",
			p:       Pokemon{ID: 1, Name: "bulbasaur", Abilities: []AbilitySlot{{Slot: 1}}},
			wantErr: "abilities[0] missing name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestPokemon_Types(t *testing.T) {
	p := Pokemon{Types: []TypeSlot{
		{Slot: 1, Type: NamedResource{Name: "grass"}},
		{Slot: 2, Type: NamedResource{Name: "poison"}},
	}}

	if got := p.TypeNames(); len(got) != 2 || got[0] != "grass" || got[1] != "poison" {
		t.Errorf("TypeNames() = %v", got)
	}
	if first, ok := p.FirstType(); !ok || first != "grass" {
		t.Errorf("FirstType() = %q, %v", first, ok)
	}
	if !p.HasType("poison") || p.HasType("fire") {
		t.Error("HasType mismatch")
	}

	var none Pokemon
	if _, ok := none.FirstType(); ok {
		t.Error("creature without types has no first type")
	}
}

func TestPokemon_ArtworkURL(t *testing.T) {
	p := Pokemon{ID: 25}
	if got, want := p.ArtworkURL(), ArtworkBaseURL+"/25.png"; got != want {
		t.Errorf("ArtworkURL() = %q, want %q", got, want)
	}

	p.Sprites.Other.OfficialArtwork.FrontDefault = "https://img.example/25.png"
	if got := p.ArtworkURL(); got != "https://img.example/25.png" {
		t.Errorf("ArtworkURL() = %q, want record artwork", got)
	}
}

func TestSpecies_FlavorText(t *testing.T) {
	s := Species{FlavorTextEntries: []FlavorTextEntry{
		{FlavorText: "Une graine.", Language: NamedResource{Name: "fr"}},
		{FlavorText: "A strange seed\fwas planted\non its back.", Language: NamedResource{Name: "en"}},
		{FlavorText: "Second entry.", Language: NamedResource{Name: "en"}},
	}}

	if got, want := s.FlavorText("en"), "A strange seed was planted on its back."; got != want {
		t.Errorf("FlavorText(en) = %q, want %q", got, want)
	}
	if got := s.FlavorText("ja"); got != "" {
		t.Errorf("FlavorText(ja) = %q, want empty", got)
	}
}

func TestSpecies_Validate(t *testing.T) {
	s := Species{Name: "venusaur", Varieties: []Variety{{Pokemon: NamedResource{Name: "venusaur"}}}}
	if err := s.Validate(); err == nil || !strings.Contains(err.Error(), "varieties[0] missing url") {
		t.Errorf("expected missing url error, got %v", err)
	}
}

func TestEvolutionChain_Validate(t *testing.T) {
	c := EvolutionChain{ID: 1, Chain: ChainLink{
		Species: NamedResource{Name: "eevee"},
		EvolvesTo: []ChainLink{
			{Species: NamedResource{Name: "vaporeon"}},
			{Species: NamedResource{}},
		},
	}}
	if err := c.Validate(); err == nil {
		t.Error("expected error for unnamed link")
	}

	c.Chain.EvolvesTo[1].Species.Name = "jolteon"
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestType_Members(t *testing.T) {
	ty := Type{Name: "grass"}
	for _, n := range []string{"bulbasaur", "ivysaur", "venusaur"} {
		ty.Pokemon = append(ty.Pokemon, TypeMember{Pokemon: NamedResource{Name: n}})
	}

	tests := []struct {
		n    int
		want int
	}{
		{n: 0, want: 3},
		{n: 2, want: 2},
		{n: 10, want: 3},
	}
	for _, tt := range tests {
		if got := ty.Members(tt.n); len(got) != tt.want {
			t.Errorf("Members(%d) returned %d, want %d", tt.n, len(got), tt.want)
		}
	}
}

func TestVisibleTypes(t *testing.T) {
	in := []NamedResource{{Name: "normal"}, {Name: "unknown"}, {Name: "fire"}, {Name: "shadow"}}
	got := VisibleTypes(in)
	if len(got) != 2 || got[0].Name != "normal" || got[1].Name != "fire" {
		t.Errorf("VisibleTypes() = %v", got)
	}
}

func TestAbility_Effects(t *testing.T) {
	a := Ability{Name: "overgrow", EffectEntries: []EffectEntry{
		{Effect: "Powers up.", Language: NamedResource{Name: "en"}},
		{Effect: "Verstärkt.", Language: NamedResource{Name: "de"}},
	}}
	if got := a.Effects("en"); len(got) != 1 || got[0] != "Powers up." {
		t.Errorf("Effects(en) = %v", got)
	}
	if got := a.Effects("fr"); got != nil {
		t.Errorf("Effects(fr) = %v, want nil", got)
	}
}
