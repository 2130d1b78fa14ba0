package admin

import "net/http"

// RegisterRoutes registers all admin API endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, svc Service) {
	h := &Handler{svc: svc}

	mux.HandleFunc("POST /_treeseed/seed", h.Seed)
	mux.HandleFunc("POST /_treeseed/reset", h.Reset)
	mux.HandleFunc("GET /_treeseed/classes", h.Classes)
	mux.HandleFunc("GET /_treeseed/tree", h.Tree)
}
