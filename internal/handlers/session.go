package handlers

import (
	"net/http"

	"github.com/csg33k/billed/internal/domain"
)

const sessionCookie = "user"

func (h *Handler) sessionFrom(r *http.Request) (domain.Session, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return domain.Session{}, domain.ErrInvalidSession
	}
	return h.sessions.Validate(c.Value)
}

// setSession signs s into the session cookie. An invalid s yields
// domain.ErrInvalidSession and no cookie.
func (h *Handler) setSession(w http.ResponseWriter, s domain.Session) error {
	token, err := h.sessions.Generate(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
}

// employee guards next behind a valid Employee session. Anything else is sent
// back to the login page.
func (h *Handler) employee(next func(http.ResponseWriter, *http.Request, domain.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.sessionFrom(r)
		if err != nil || s.Type != domain.UserEmployee {
			h.navigator(w, r)(domain.RouteLogin)
			return
		}
		next(w, r, s)
	}
}
