// Package server exposes the distribution engine over a JSON HTTP API. Each
// handler authenticates via the token service, builds a capability set, and
// delegates to the stores or the lifecycle engine.
package server

import (
	"net/http"

	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/captcha"
	"github.com/meridianaudio/meridian/internal/lifecycle"
	"github.com/meridianaudio/meridian/internal/mailer"
	"github.com/meridianaudio/meridian/internal/store"
	"github.com/rs/cors"
)

const apiPrefix = "/api/v1"

// Server holds the wired collaborators for the HTTP API.
type Server struct {
	stores  *store.Stores
	tokens  *auth.TokenService
	guard   *auth.Guard
	engine  *lifecycle.Engine
	captcha captcha.Verifier
	mail    mailer.Mailer
}

// Config carries the Server's collaborators.
type Config struct {
	Stores  *store.Stores
	Tokens  *auth.TokenService
	Guard   *auth.Guard
	Engine  *lifecycle.Engine
	Captcha captcha.Verifier
	Mailer  mailer.Mailer
}

// New creates a Server.
func New(cfg Config) *Server {
	return &Server{
		stores:  cfg.Stores,
		tokens:  cfg.Tokens,
		guard:   cfg.Guard,
		engine:  cfg.Engine,
		captcha: cfg.Captcha,
		mail:    cfg.Mailer,
	}
}

// Handler assembles the route table. Login, the token probe, and the
// password-reset request are reachable without a token; everything else sits
// behind the bearer middleware. CORS is permissive: this is an internal
// admin surface consumed by a single-page app, not a public API.
func (s *Server) Handler() http.Handler {
	authed := http.NewServeMux()

	authed.HandleFunc("POST "+apiPrefix+"/auth/change-password", s.handleChangePassword)

	authed.HandleFunc("GET "+apiPrefix+"/users", s.handleListUsers)
	authed.HandleFunc("POST "+apiPrefix+"/users", s.handleCreateUser)
	authed.HandleFunc("GET "+apiPrefix+"/users/{id}", s.handleGetUser)
	authed.HandleFunc("PUT "+apiPrefix+"/users/{id}", s.handleUpdateUser)
	authed.HandleFunc("DELETE "+apiPrefix+"/users/{id}", s.handleDeleteUser)

	authed.HandleFunc("GET "+apiPrefix+"/labels", s.handleListLabels)
	authed.HandleFunc("POST "+apiPrefix+"/labels", s.handleCreateLabel)
	authed.HandleFunc("GET "+apiPrefix+"/labels/{id}", s.handleGetLabel)
	authed.HandleFunc("PUT "+apiPrefix+"/labels/{id}", s.handleUpdateLabel)
	authed.HandleFunc("DELETE "+apiPrefix+"/labels/{id}", s.handleDeleteLabel)

	authed.HandleFunc("GET "+apiPrefix+"/artists", s.handleListArtists)
	authed.HandleFunc("POST "+apiPrefix+"/artists", s.handleCreateArtist)
	authed.HandleFunc("GET "+apiPrefix+"/artists/{id}", s.handleGetArtist)
	authed.HandleFunc("PUT "+apiPrefix+"/artists/{id}", s.handleUpdateArtist)
	authed.HandleFunc("DELETE "+apiPrefix+"/artists/{id}", s.handleDeleteArtist)

	authed.HandleFunc("GET "+apiPrefix+"/releases", s.handleListReleases)
	authed.HandleFunc("POST "+apiPrefix+"/releases", s.handleCreateRelease)
	authed.HandleFunc("GET "+apiPrefix+"/releases/{id}", s.handleGetRelease)
	authed.HandleFunc("PUT "+apiPrefix+"/releases/{id}", s.handleUpdateRelease)
	authed.HandleFunc("DELETE "+apiPrefix+"/releases/{id}", s.handleDeleteRelease)
	authed.HandleFunc("POST "+apiPrefix+"/releases/{id}/transition", s.handleTransitionRelease)

	authed.HandleFunc("GET "+apiPrefix+"/notices", s.handleListNotices)
	authed.HandleFunc("POST "+apiPrefix+"/notices", s.handleCreateNotice)
	authed.HandleFunc("GET "+apiPrefix+"/notices/{id}", s.handleGetNotice)
	authed.HandleFunc("PUT "+apiPrefix+"/notices/{id}", s.handleUpdateNotice)
	authed.HandleFunc("DELETE "+apiPrefix+"/notices/{id}", s.handleDeleteNotice)

	authed.HandleFunc("GET "+apiPrefix+"/revenue", s.handleListRevenue)
	authed.HandleFunc("GET "+apiPrefix+"/search", s.handleSearch)

	protected := auth.Middleware(s.tokens)(authed)

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiPrefix+"/auth/login", s.handleLogin)
	mux.HandleFunc("GET "+apiPrefix+"/auth/verify", s.handleVerify)
	mux.HandleFunc("POST "+apiPrefix+"/auth/reset-password", s.handleResetPassword)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle(apiPrefix+"/", protected)

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// capabilities builds the per-request capability set from the verified
// claims placed in the context by the auth middleware.
func (s *Server) capabilities(r *http.Request) (*auth.Capabilities, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return nil, auth.ErrForbidden
	}
	return s.guard.For(r.Context(), claims)
}
