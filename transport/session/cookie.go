// Package session identifies the browser session a request belongs to.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const CookieName = "user_session"

// Ensure returns the session id carried by the request cookie. A new id is
// generated and set on the response when the cookie is missing.
func Ensure(w http.ResponseWriter, r *http.Request, ttl time.Duration) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.NewString()

	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		cookie.Expires = time.Now().Add(ttl)
		cookie.MaxAge = int(ttl.Seconds())
	}

	http.SetCookie(w, cookie)

	return id
}
