package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/pokedex-web/internal/testutil"
	"github.com/Sternrassler/pokedex-web/pkg/client"
	"github.com/Sternrassler/pokedex-web/pkg/logging"
	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
)

func newTestLister(t *testing.T) (*pokeapi.API, *testutil.MockPokeAPI) {
	t.Helper()

	mock := testutil.NewMockPokeAPI()
	t.Cleanup(mock.Close)
	testutil.SeedStarterFamily(mock)

	cfg := client.DefaultConfig("pokedex-test/1.0")
	cfg.BaseURL = mock.BaseURL()
	c, err := client.New(cfg)
	require.NoError(t, err)

	return pokeapi.New(c), mock
}

func TestBuild(t *testing.T) {
	api, mock := newTestLister(t)

	out, err := Build(context.Background(), api, "https://pokedex.example/")
	require.NoError(t, err)

	doc := string(out)
	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, doc, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)

	var set URLSet
	require.NoError(t, xml.Unmarshal(out, &set))

	locs := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		locs = append(locs, u.Loc)
	}
	want := []string{
		"https://pokedex.example/",
		"https://pokedex.example/pokemon/bulbasaur",
		"https://pokedex.example/pokemon/ivysaur",
		"https://pokedex.example/pokemon/venusaur",
		"https://pokedex.example/pokemon/charmander",
		"https://pokedex.example/pokemon/eevee",
		"https://pokedex.example/pokemon/vaporeon",
		"https://pokedex.example/pokemon/jolteon",
		"https://pokedex.example/pokemon/venusaur-mega",
		"https://pokedex.example/type/grass",
		"https://pokedex.example/type/poison",
		"https://pokedex.example/type/fire",
		"https://pokedex.example/type/normal",
		"https://pokedex.example/type/water",
		"https://pokedex.example/type/electric",
	}
	assert.Equal(t, want, locs, "hidden types are left out")

	// one listing request per collection, no detail fetches
	assert.Equal(t, 1, mock.PathCount("/pokemon"))
	assert.Equal(t, 1, mock.PathCount("/type"))
	assert.Zero(t, mock.CountPrefix("/pokemon/"))
}

type stubLister struct {
	list    *pokeapi.ResourceList
	types   []pokeapi.NamedResource
	listErr error
	limit   int
}

func (s *stubLister) ListPokemon(_ context.Context, limit, _ int) (*pokeapi.ResourceList, error) {
	s.limit = limit
	return s.list, s.listErr
}

func (s *stubLister) ListTypes(context.Context) ([]pokeapi.NamedResource, error) {
	return s.types, nil
}

func TestBuild_RequestsFullCollection(t *testing.T) {
	stub := &stubLister{list: &pokeapi.ResourceList{}}

	_, err := Build(context.Background(), stub, "https://pokedex.example")
	require.NoError(t, err)
	assert.Equal(t, CreatureLimit, stub.limit)
}

func TestBuild_EscapesNames(t *testing.T) {
	stub := &stubLister{
		list: &pokeapi.ResourceList{Results: []pokeapi.NamedResource{{Name: "farfetch'd & co"}}},
	}

	out, err := Build(context.Background(), stub, "https://pokedex.example")
	require.NoError(t, err)

	var set URLSet
	require.NoError(t, xml.Unmarshal(out, &set))
	require.Len(t, set.URLs, 2)
	assert.Equal(t, "https://pokedex.example/pokemon/farfetch%27d%20&%20co", set.URLs[1].Loc)
	assert.Contains(t, string(out), "&amp;")
}

func TestBuild_ListingFailure(t *testing.T) {
	boom := errors.New("upstream down")
	stub := &stubLister{listErr: boom}

	out, err := Build(context.Background(), stub, "https://pokedex.example")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)
}

func TestNormalizeBase(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://pokedex.example", want: "https://pokedex.example"},
		{in: "https://pokedex.example///", want: "https://pokedex.example"},
		{in: "http://localhost:8080/site/", want: "http://localhost:8080/site"},
		{in: "", wantErr: true},
		{in: "pokedex.example", wantErr: true},
		{in: "ftp://pokedex.example", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeBase(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_LogsComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	logging.Setup(logging.Config{Level: logging.LevelDebug, Output: buf})
	t.Cleanup(func() { logging.Setup(logging.DefaultConfig()) })

	_, err := Build(context.Background(), &stubLister{list: &pokeapi.ResourceList{}}, "https://pokedex.example")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"component":"sitemap"`)
}
