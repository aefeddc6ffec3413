package web

import (
	"net/http"

	"github.com/google/uuid"
)

// SessionCookie carries the browsing session id that scopes view state and
// in-flight navigations.
const SessionCookie = "pokedex_sid"

// session returns the request's session id, issuing a new one when the
// cookie is absent or malformed.
func session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// peekSession returns the session id without issuing one.
func peekSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
