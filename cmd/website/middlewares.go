package main

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

/*
newAdminTokenMiddleware guards the admin API with a bearer token that only
ever lives in server-side configuration. The content repo token never
reaches a browser; clients authenticate to this service instead.
*/
func newAdminTokenMiddleware(adminToken string, excludedPaths []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			for _, excludedPath := range excludedPaths {
				if strings.HasPrefix(path, excludedPath) {
					next.ServeHTTP(w, r)
					return
				}
			}

			provided := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

			if adminToken == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(adminToken)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
