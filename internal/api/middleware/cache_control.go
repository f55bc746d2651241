package middleware

import "net/http"

// NoStore sets Cache-Control: no-store on every response. Responses are
// generated per authenticated user, so browsers and intervening caches
// must never save them across users; it also guarantees every visit gets a
// fresh REDCap lookup.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
