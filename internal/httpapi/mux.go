package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns a mux with the infrastructure routes registered. Feature
// modules add their own routes to it.
func NewMux(db *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	return mux
}
