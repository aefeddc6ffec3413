package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Sternrassler/pokedex-web/pkg/aggregate"
	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
	"github.com/Sternrassler/pokedex-web/pkg/sitemap"
	"github.com/Sternrassler/pokedex-web/pkg/viewstate"
)

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	offset := 0
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > aggregate.MaxOffset {
			writeError(w, http.StatusBadRequest, "offset must be an integer within [0, "+strconv.Itoa(aggregate.MaxOffset)+"]")
			return
		}
		offset = n
	}

	page, err := s.agg.Listing(r.Context(), offset)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	page.Creatures = aggregate.FilterSummaries(page.Creatures, q.Get("q"), q.Get("type"))

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	sid := session(w, r)
	logger := s.logger.With().Str("pokemon", name).Str("session", sid).Logger()

	known := s.knownForms(r.Context(), sid)

	ctx, ticket := s.nav.Begin(r.Context(), sid, name)
	defer ticket.Done()

	d, err := s.agg.Detail(ctx, name, known)
	if err != nil {
		if errors.Is(context.Cause(ctx), viewstate.ErrSuperseded) {
			logger.Debug().Msg("Navigation superseded")
			writeError(w, http.StatusConflict, viewstate.ErrSuperseded.Error())
		}
		return
	}

	status := http.StatusOK
	if !d.Ready() {
		status = http.StatusNotFound
	}

	// a not_found load only replaces the view state when it resolved forms
	if d.Ready() || len(d.FormRecords) > 0 {
		err = ticket.Commit(func() error {
			return s.store.Put(r.Context(), sid, &viewstate.State{
				LastName:  name,
				Forms:     d.FormRecords,
				UpdatedAt: s.now().UTC(),
			})
		})
		switch {
		case errors.Is(err, viewstate.ErrSuperseded):
			logger.Debug().Msg("Navigation superseded before commit")
			writeError(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			// the detail is still served; only the next fallback is lost
			logger.Warn().Err(err).Msg("Failed to store view state")
		}
	}

	writeJSON(w, status, d)
}

// knownForms returns the variety records the session's previous navigation
// left behind.
func (s *Server) knownForms(ctx context.Context, sid string) []*pokeapi.Pokemon {
	state, err := s.store.Get(ctx, sid)
	switch {
	case err == nil:
		return state.Forms
	case errors.Is(err, viewstate.ErrNotFound):
		return nil
	default:
		s.logger.Warn().Err(err).Str("session", sid).Msg("Failed to load view state")
		return nil
	}
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	typeName := r.URL.Query().Get("type")

	var creature *pokeapi.Pokemon
	if typeName == "" {
		p, err := s.agg.Creature(r.Context(), name)
		if err != nil {
			s.writeUpstreamError(w, r, err)
			return
		}
		creature = p
	}

	set, err := s.agg.Related(r.Context(), typeName, creature)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := s.agg.Metadata(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

type typesBody struct {
	Types []string `json:"types"`
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	names, err := s.agg.Types(r.Context())
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, typesBody{Types: names})
}

func (s *Server) handleTypeListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.agg.TypeListing(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

type navigationBody struct {
	State aggregate.State `json:"state"`
	Name  string          `json:"name,omitempty"`
}

// handleNavigation reports whether the session has a detail navigation in
// flight.
func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	body := navigationBody{State: aggregate.StateIdle}
	if sid, ok := peekSession(r); ok {
		if name, busy := s.nav.InFlight(sid); busy {
			body = navigationBody{State: aggregate.StateLoading, Name: name}
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	body, err := sitemap.Build(r.Context(), s.lister, s.siteURL)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
