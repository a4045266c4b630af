package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !defaultChecker.Can(r.Context(), perm) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAttemptOwner guards attempt listings. Callers with
// attempt:view-all pass untouched; callers with only attempt:view-own get
// the query parameter param pinned to their own id, whatever they asked for.
func RequireAttemptOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, all, ok := defaultChecker.AttemptOwner(r.Context())
			switch {
			case !ok:
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			case !all:
				q := r.URL.Query()
				q.Set(param, owner)
				r = r.Clone(r.Context())
				r.URL.RawQuery = q.Encode()
			}
			next.ServeHTTP(w, r)
		})
	}
}
