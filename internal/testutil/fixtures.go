package testutil

// Seeded creature ids.
const (
	BulbasaurID    = 1
	IvysaurID      = 2
	VenusaurID     = 3
	VenusaurMegaID = 10033
	CharmanderID   = 4
	EeveeID        = 133
	VaporeonID     = 134
	JolteonID      = 135
)

// BulbasaurFlavor is the raw English flavor text seeded for bulbasaur.
const BulbasaurFlavor = "A strange seed was\nplanted on its\fback at birth."

// SeedStarterFamily registers the bulbasaur family, charmander, and the
// eevee family with their species, evolution chains, abilities and types.
//
// The grass type lists "missingno" as a member that has no creature record,
// so tolerant fan-outs over it observe exactly one failure.
func SeedStarterFamily(m *MockPokeAPI) {
	m.AddPokemon(PokemonFixture{ID: BulbasaurID, Name: "bulbasaur", Types: []string{"grass", "poison"},
		Abilities: []string{"overgrow", "chlorophyll"}, Moves: 14, Height: 7, Weight: 69})
	m.AddPokemon(PokemonFixture{ID: IvysaurID, Name: "ivysaur", Types: []string{"grass", "poison"},
		Abilities: []string{"overgrow", "chlorophyll"}, Moves: 12, Height: 10, Weight: 130})
	m.AddPokemon(PokemonFixture{ID: VenusaurID, Name: "venusaur", Types: []string{"grass", "poison"},
		Abilities: []string{"overgrow", "chlorophyll"}, Moves: 20, Height: 20, Weight: 1000})
	m.AddPokemon(PokemonFixture{ID: CharmanderID, Name: "charmander", Types: []string{"fire"},
		Abilities: []string{"blaze"}, Moves: 8, Height: 6, Weight: 85})
	m.AddPokemon(PokemonFixture{ID: EeveeID, Name: "eevee", Types: []string{"normal"},
		Abilities: []string{"run-away"}, Moves: 5, Height: 3, Weight: 65})
	m.AddPokemon(PokemonFixture{ID: VaporeonID, Name: "vaporeon", Types: []string{"water"},
		Abilities: []string{"water-absorb"}, Moves: 5, Height: 10, Weight: 290})
	m.AddPokemon(PokemonFixture{ID: JolteonID, Name: "jolteon", Types: []string{"electric"},
		Abilities: []string{"volt-absorb"}, Moves: 5, Height: 8, Weight: 245})
	m.AddPokemon(PokemonFixture{ID: VenusaurMegaID, Name: "venusaur-mega", Species: "venusaur",
		Types: []string{"grass", "poison"}, Abilities: []string{"thick-fat"}, Moves: 20, Height: 24, Weight: 1555})

	m.AddSpecies(SpeciesFixture{ID: BulbasaurID, Name: "bulbasaur", Varieties: []string{"bulbasaur"},
		ChainID: 1, Flavor: BulbasaurFlavor})
	m.AddSpecies(SpeciesFixture{ID: IvysaurID, Name: "ivysaur", Varieties: []string{"ivysaur"},
		ChainID: 1, Flavor: "When the bulb on\nits back grows large, it appears to lose the ability to stand."})
	m.AddSpecies(SpeciesFixture{ID: VenusaurID, Name: "venusaur", Varieties: []string{"venusaur", "venusaur-mega", "venusaur-gmax"},
		ChainID: 1, Flavor: "The plant blooms when it is absorbing solar energy."})
	m.AddSpecies(SpeciesFixture{ID: CharmanderID, Name: "charmander", Varieties: []string{"charmander"},
		Flavor: "Obviously prefers hot places."})
	m.AddSpecies(SpeciesFixture{ID: EeveeID, Name: "eevee", Varieties: []string{"eevee"}, ChainID: 67,
		Flavor: "Its genetic code is irregular."})
	m.AddSpecies(SpeciesFixture{ID: VaporeonID, Name: "vaporeon", Varieties: []string{"vaporeon"}, ChainID: 67})
	m.AddSpecies(SpeciesFixture{ID: JolteonID, Name: "jolteon", Varieties: []string{"jolteon"}, ChainID: 67})

	m.AddEvolutionChain(1, m.Link("bulbasaur", m.Link("ivysaur", m.Link("venusaur"))))
	m.AddEvolutionChain(67, m.Link("eevee", m.Link("vaporeon"), m.Link("jolteon"), m.Link("flareon")))

	m.AddAbility("overgrow", "Powers up Grass-type moves in a pinch.")
	m.AddAbility("chlorophyll", "Doubles Speed during strong sunlight.")
	m.AddAbility("blaze", "Powers up Fire-type moves in a pinch.")
	m.AddAbility("thick-fat", "Halves damage from Fire and Ice moves.")
	m.AddAbility("run-away", "Enables a sure getaway from wild Pokémon.")
	m.AddAbility("water-absorb", "Restores HP if hit by a Water-type move.")
	m.AddAbility("volt-absorb", "Restores HP if hit by an Electric-type move.")

	m.AddType("grass", []string{"bulbasaur", "ivysaur", "missingno", "venusaur", "venusaur-mega"})
	m.AddType("poison", []string{"bulbasaur", "ivysaur", "venusaur"})
	m.AddType("fire", []string{"charmander"})
	m.AddType("normal", []string{"eevee"})
	m.AddType("water", []string{"vaporeon"})
	m.AddType("electric", []string{"jolteon"})
	m.AddType("unknown", nil)
	m.AddType("shadow", nil)
}
