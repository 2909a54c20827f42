package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"lostfound/pkg/api/handlers"
)

// Handler returns the API router. All JSON endpoints live under /api;
// stored chat media is served under /uploads/ (the media-prefix
// convention clients use to tell image messages from text).
func Handler(uploadsDir string) http.Handler {
	r := mux.NewRouter()
	r.Use(countRequests)

	api := r.PathPrefix("/api").Subrouter()
	handlers.RegisterUsers(api)
	handlers.RegisterItems(api)
	handlers.RegisterChat(api)
	handlers.RegisterNotifications(api)

	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	return r
}
