package session

import (
	"net/http"
)

// Middleware attaches the session state to each request's context and sets
// the session cookie when the state is fresh.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(CookieName); err == nil {
			id = c.Value
		}

		st, err := m.Get(r.Context(), id)
		if err != nil {
			m.logger.Error("session load failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if st.Fresh {
			http.SetCookie(w, m.Cookie(st))
			st.Fresh = false
			if err := m.Update(r.Context(), st); err != nil {
				m.logger.Error("session update failed", "session_id", st.ID, "error", err)
			}
		}

		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), st)))
	})
}

// Cookie returns the cookie carrying st's id.
func (m *Manager) Cookie(st *State) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    st.ID,
		Path:     "/",
		Expires:  st.ExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
