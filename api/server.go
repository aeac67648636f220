// Package api serves listings and similar-property recommendations over HTTP.
package api

import (
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"property-recommender/auth"
	"property-recommender/metrics"
	"property-recommender/models"
	"property-recommender/services"
	"property-recommender/utils"
)

// maxBodyBytes caps signup and login payloads.
const maxBodyBytes = 1 << 16

// Options tune response sizes and cookie flags.
type Options struct {
	NumSimilar     int
	SamplesPerCity int
	SecureCookies  bool
}

// Server holds the handlers' dependencies.
type Server struct {
	catalog  *services.Catalog
	insights *services.InsightService
	auth     *auth.Service
	throttle *auth.Throttle
	logger   *utils.Logger
	opts     Options
}

// NewServer wires the HTTP handlers.
func NewServer(catalog *services.Catalog, insights *services.InsightService, authSvc *auth.Service,
	throttle *auth.Throttle, logger *utils.Logger, opts Options) *Server {
	return &Server{
		catalog:  catalog,
		insights: insights,
		auth:     authSvc,
		throttle: throttle,
		logger:   logger,
		opts:     opts,
	}
}

// Router returns the complete route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.accessLog)

	router.HandleFunc("/healthz", s.health).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.HandleFunc("/signup", s.signup).Methods("POST")
	router.HandleFunc("/login", s.login).Methods("POST")

	authed := router.NewRoute().Subrouter()
	authed.Use(auth.Middleware(s.auth.Tokens(), func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusUnauthorized, "login required")
	}))
	authed.HandleFunc("/logout", s.logout).Methods("POST")
	authed.HandleFunc("/api/properties/sample", s.sample).Methods("GET")
	authed.HandleFunc("/api/properties", s.listByCity).Methods("GET")
	authed.HandleFunc("/api/properties/{id:[0-9]+}", s.propertyDetails).Methods("GET")
	authed.HandleFunc("/api/insights", s.insightReport).Methods("GET")

	return router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	snap := s.catalog.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"listings":  len(snap.Listings),
		"loaded_at": snap.LoadedAt,
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	if !s.throttle.Allow(clientIP(r)) {
		s.writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}
	var creds auth.Credentials
	if err := decodeBody(r, &creds); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.auth.Register(r.Context(), creds)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"id": user.ID, "username": user.Username})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if !s.throttle.Allow(clientIP(r)) {
		s.writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}
	var creds auth.Credentials
	if err := decodeBody(r, &creds); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, err := s.auth.Login(r.Context(), creds)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.writeJSON(w, http.StatusOK, map[string]any{"token": sess.Token, "expires_at": sess.ExpiresAt})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		s.auth.Logout(sess)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sample(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"cities": s.catalog.SampleByCity(s.opts.SamplesPerCity)})
}

func (s *Server) listByCity(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		s.writeError(w, http.StatusBadRequest, "city query parameter is required")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"city": city, "properties": s.catalog.ByCity(city)})
}

type detailsResponse struct {
	Property        *models.Listing         `json:"property"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

func (s *Server) propertyDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "property not found")
		return
	}
	property, err := s.catalog.Get(id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	recs, err := s.catalog.Recommend(id, s.opts.NumSimilar)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detailsResponse{Property: property, Recommendations: recs})
}

func (s *Server) insightReport(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.insights.Generate(s.catalog.Snapshot().Listings))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.ObserveHTTP(route, rec.status)
		s.logger.Info("[api] %s %s %d %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
