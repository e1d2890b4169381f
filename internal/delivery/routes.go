package delivery

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth    *AuthHandler
	Session *SessionHandler
	Frame   *FrameHandler
	History *HistoryHandler
	// FrameStream is the websocket endpoint; nil where upgrades are impossible (Lambda).
	FrameStream http.Handler
}

// NewRouter builds the router shared by the HTTP server and the Lambda adapter.
func NewRouter(h Handlers, identity func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(allowAnyOrigin)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(identity)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Not found: "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r chi.Router, h Handlers) {

	// auth
	r.Post("/auth/login", h.Auth.Login)
	r.Post("/auth/register", h.Auth.Register)

	// sessions
	r.Post("/session/start", h.Session.Start)
	r.Post("/session/end", h.Session.End)

	// frames
	r.Post("/frame/upload", h.Frame.Upload)
	if h.FrameStream != nil {
		r.Method(http.MethodGet, "/frame/stream", h.FrameStream)
	}

	// history
	r.Get("/history/list", h.History.List)
	r.Get("/history/{sessionID:[0-9]+}", h.History.Get)
}

// allowAnyOrigin makes sure even requests without an Origin header get the
// permissive header; cors.Handler overrides it for real cross-origin calls.
func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}
