package database

import (
	"net/http"
)

// WithQuerierContext creates middleware that installs the pool as the
// request's database querier. Services that need a transaction swap it
// out themselves via InTx.
func WithQuerierContext(db *DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(db.WithPool(r.Context())))
		})
	}
}
