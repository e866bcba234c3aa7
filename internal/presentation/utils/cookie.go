// Package utils carries the anonymous identity scheme: every browser gets a
// persistent user ID cookie on first contact, and API clients may send the
// same ID in a header instead.
package utils

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	CookieNameUserID = "geo_user_id"
	HeaderUserToken  = "X-User-Token"

	userIDCookieLifetime = 30 * 24 * time.Hour
)

// EnsureUserID returns the caller's user ID, minting and setting one if the
// request carries none.
func EnsureUserID(w http.ResponseWriter, r *http.Request) string {
	if id := GetUserIDFromRequest(r); id != "" {
		return id
	}

	newID := uuid.New().String()
	SetPersistentUserIDCookie(newID, w)
	return newID
}

func GetUserIDFromRequest(r *http.Request) string {
	// First try header (for API clients)
	if token := r.Header.Get(HeaderUserToken); token != "" {
		return token
	}

	// Fall back to cookie (for browsers and WebSocket)
	return GetUserIDFromCookie(r)
}

func GetUserIDFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(CookieNameUserID)
	if err != nil {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func SetPersistentUserIDCookie(userID string, w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieNameUserID,
		Value:    base64.StdEncoding.EncodeToString([]byte(userID)),
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(userIDCookieLifetime),
		SameSite: http.SameSiteLaxMode,
		Secure:   true,
	})
}
