// apps/go-server/internal/session/cookie.go
//
// Cookie transport for session handles. In production the cookie is Secure and
// SameSite=None so a separately hosted client can send it; locally it is Lax.

package session

import (
	"net/http"
	"time"
)

// CookieName is the name of the session handle cookie.
const CookieName = "capitals_session"

// SetCookie writes the handle cookie.
func SetCookie(w http.ResponseWriter, token string, exp time.Time, production bool) {
	http.SetCookie(w, cookie(token, exp, production))
}

func cookie(value string, exp time.Time, production bool) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if production {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   production,
		SameSite: sameSite,
		Expires:  exp,
	}
}

// FromRequest returns the raw handle token, or "" when there is none.
func FromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
