// Package api exposes the arcade over a local JSON HTTP API: the game
// catalog and engine actions, best scores, the attempt history, daily
// challenges and achievements.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/arcade"
	"github.com/MJE43/mindful-arcade/internal/challenge"
	"github.com/MJE43/mindful-arcade/internal/store"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxBodyBytes          = 1 << 20
)

// ServerConfig wires a Server.
type ServerConfig struct {
	Arcade  *arcade.Arcade
	DB      store.DB
	Tracker *challenge.Tracker
	// Token guards mutating routes. Empty disables the check.
	Token          string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// Server handles HTTP requests
type Server struct {
	arcade         *arcade.Arcade
	db             store.DB
	tracker        *challenge.Tracker
	token          string
	requestTimeout time.Duration
	errorHandler   *ErrorHandler
	validate       *validator.Validate
	logger         *zap.Logger
	startTime      time.Time
}

// NewServer creates a new API server
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	s := &Server{
		arcade:         cfg.Arcade,
		db:             cfg.DB,
		tracker:        cfg.Tracker,
		token:          cfg.Token,
		requestTimeout: cfg.RequestTimeout,
		errorHandler:   NewErrorHandler(logger),
		validate:       v,
		logger:         logger,
		startTime:      time.Now(),
	}
	logger.Info("api server created",
		zap.Int("games_available", len(cfg.Arcade.Games())),
		zap.Bool("database_enabled", cfg.DB != nil),
		zap.Bool("token_enabled", cfg.Token != ""),
	)
	return s
}

// Routes sets up the HTTP routes with middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(s.CORSMiddleware)

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/games", s.handleListGames)
		r.Get("/games/{id}", s.handleGetGame)
		r.Get("/scores", s.handleListScores)
		r.Get("/attempts", s.handleListAttempts)
		r.Get("/challenges", s.handleListChallenges)
		r.Get("/achievements", s.handleListAchievements)

		r.Group(func(r chi.Router) {
			r.Use(s.TokenMiddleware)
			r.Post("/games/{id}/{action}", s.handleGameAction)
			r.Post("/scores", s.handleReportScore)
			r.Post("/challenges/{id}/claim", s.handleClaimChallenge)
		})
	})

	return r
}

// writeJSON writes a JSON response with the version header
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Arcade-Version", ArcadeVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
// An empty body leaves dst untouched when allowEmpty is set.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// validateStruct runs validator tags and reports the first failing field.
func (s *Server) validateStruct(w http.ResponseWriter, r *http.Request, v any) bool {
	err := s.validate.Struct(v)
	if err == nil {
		return true
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		s.errorHandler.HandleValidationError(w, r, fe.Field(), fe.Field()+" failed on "+fe.Tag())
		return false
	}
	s.errorHandler.HandleValidationError(w, r, "body", err.Error())
	return false
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}
