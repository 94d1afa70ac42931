package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/forwarder"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/models"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/service"
)

type walletService interface {
	GetBalance(ctx context.Context, uid, token string) (int64, error)
	ChangeBalance(ctx context.Context, req service.BalanceChange) (service.ChangeResult, error)
}

type launchService interface {
	Launch(ctx context.Context, req service.LaunchRequest) (service.LaunchResult, error)
	GameAuth(user *models.User, sitePrefix string) (service.GameAuthData, error)
	Auth(username, sitePrefix string) (service.AuthPayload, error)
}

type remoteForwarder interface {
	Forward(ctx context.Context, site *config.Site, endpoint config.Endpoint, contentType string, body []byte) (*forwarder.Result, error)
}

type sessionStore interface {
	GetBySessionToken(ctx context.Context, token string) (*models.User, error)
}

type Server struct {
	cfg       *config.Config
	sites     *config.Registry
	wallet    walletService
	launch    launchService
	forwarder remoteForwarder
	sessions  sessionStore
	log       *logrus.Entry
}

func New(cfg *config.Config, sites *config.Registry, wallet walletService, launch launchService, fwd remoteForwarder, sessions sessionStore) *Server {
	return &Server{
		cfg:       cfg,
		sites:     sites,
		wallet:    wallet,
		launch:    launch,
		forwarder: fwd,
		sessions:  sessions,
		log:       logrus.WithField("component", "server"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /buffalo/get-user-balance", s.handleGetUserBalance)
	mux.HandleFunc("POST /buffalo/change-balance", s.handleChangeBalance)
	mux.HandleFunc("POST /buffalo/launch-game", s.handleLaunchGame)
	mux.Handle("GET /buffalo/game-auth", s.requireSession(http.HandlerFunc(s.handleGameAuth)))
	mux.Handle("POST /buffalo/game-url", s.requireSession(http.HandlerFunc(s.handleGameURL)))
	return cors(s.requestLogger(mux))
}

func (s *Server) Run() error {
	port := s.cfg.Port
	if port <= 0 {
		port = 8082
	}
	addr := ":" + strconv.Itoa(port)
	s.log.WithFields(logrus.Fields{
		"addr":         addr,
		"default_site": s.sites.DefaultPrefix(),
	}).Info("gateway listening")
	return http.ListenAndServe(addr, s.Handler())
}

func cors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// requestLogger tags each request with an id and logs method, path and
// duration. Bodies are never logged, they carry tokens.
func (s *Server) requestLogger(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
		h.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "buffalo-gateway"})
}
