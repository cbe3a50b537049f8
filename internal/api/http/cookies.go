package http

import (
	"net/http"
	"time"
)

const (
	accessCookie  = "accesstoken"
	refreshCookie = "refreshtoken"
)

type cookieJar struct {
	secure        bool
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func (c cookieJar) set(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, c.cookie(accessCookie, accessToken, c.accessExpiry))
	http.SetCookie(w, c.cookie(refreshCookie, refreshToken, c.refreshExpiry))
}

func (c cookieJar) clear(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
}

func (c cookieJar) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
