package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/sessions"
)

func tokenCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// setTokenCookies mirrors the token pair into http-only cookies with
// max-age matching each token's lifetime.
func (s *Server) setTokenCookies(w http.ResponseWriter, pair sessions.TokenPair) {
	http.SetCookie(w, tokenCookie(common.AccessTokenCookieName, pair.AccessToken, s.codec.AccessTTL()))
	http.SetCookie(w, tokenCookie(common.RefreshTokenCookieName, pair.RefreshToken, s.codec.RefreshTTL()))
}

func (s *Server) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, tokenCookie(common.AccessTokenCookieName, "", -time.Second))
	http.SetCookie(w, tokenCookie(common.RefreshTokenCookieName, "", -time.Second))
}
