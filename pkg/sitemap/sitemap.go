// Package sitemap renders the site's XML sitemap from the upstream
// collections.
package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Sternrassler/pokedex-web/pkg/logging"
	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
)

var logger = logging.Component("sitemap")

// Namespace is the sitemaps.org schema.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// CreatureLimit is the listing page size used to enumerate every creature
// in one request.
const CreatureLimit = 10000

// Lister enumerates the upstream collections. *pokeapi.API implements it.
type Lister interface {
	ListPokemon(ctx context.Context, limit, offset int) (*pokeapi.ResourceList, error)
	ListTypes(ctx context.Context) ([]pokeapi.NamedResource, error)
}

// URLSet is the sitemap document root.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL is one sitemap entry.
type URL struct {
	Loc string `xml:"loc"`
}

// Build lists every creature and every visible type and renders the sitemap
// for the site at baseURL: the home page, one page per creature and one per
// type. Either listing failing fails the build.
func Build(ctx context.Context, lister Lister, baseURL string) ([]byte, error) {
	set, err := Collect(ctx, lister, baseURL)
	if err != nil {
		return nil, err
	}
	return set.Marshal()
}

// Collect gathers the sitemap entries without rendering them.
func Collect(ctx context.Context, lister Lister, baseURL string) (*URLSet, error) {
	base, err := normalizeBase(baseURL)
	if err != nil {
		return nil, err
	}

	creatures, err := lister.ListPokemon(ctx, CreatureLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("list creatures: %w", err)
	}
	types, err := lister.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}

	set := &URLSet{
		XMLNS: Namespace,
		URLs:  make([]URL, 0, 1+len(creatures.Results)+len(types)),
	}
	set.URLs = append(set.URLs, URL{Loc: base + "/"})
	for _, c := range creatures.Results {
		set.URLs = append(set.URLs, URL{Loc: base + "/pokemon/" + url.PathEscape(c.Name)})
	}
	for _, t := range types {
		set.URLs = append(set.URLs, URL{Loc: base + "/type/" + url.PathEscape(t.Name)})
	}

	logger.Logger().Debug().
		Int("creatures", len(creatures.Results)).
		Int("types", len(types)).
		Msg("Sitemap collected")

	return set, nil
}

// Marshal renders the document with its XML declaration.
func (s *URLSet) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

func normalizeBase(baseURL string) (string, error) {
	if strings.TrimSpace(baseURL) == "" {
		return "", errors.New("site url is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse site url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("site url must be an absolute http(s) url (got %q)", baseURL)
	}
	return u.String(), nil
}
