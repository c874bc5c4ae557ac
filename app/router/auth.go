package router

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
)

// requireToken rejects requests without a known bearer token with 401.
// Any known token is accepted; there are no roles.
func requireToken(tokens []string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !knownToken(tokens, strings.TrimSpace(token)) {
			log.Printf("❌ Unauthorized %s request to %s", r.Method, r.URL.Path)
			w.Header().Set("WWW-Authenticate", `Bearer realm="print"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func knownToken(tokens []string, token string) bool {
	if token == "" {
		return false
	}
	for _, t := range tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return true
		}
	}
	return false
}
