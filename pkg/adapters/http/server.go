package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/nestflow"
	"github.com/aretw0/nestflow/internal/logging"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/editor"
	"github.com/aretw0/nestflow/pkg/observability"
	"github.com/aretw0/nestflow/pkg/ports"
	"github.com/aretw0/nestflow/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Server exposes the editor and player over a JSON API.
type Server struct {
	modules  ports.ModuleStore
	editor   *editor.Service
	sessions *session.Manager
	media    ports.MediaStore
	metrics  *observability.Metrics
	logger   *slog.Logger

	Streams *StreamManager
}

// Option configures the Server.
type Option func(*Server)

// WithMediaStore enables the /media endpoints.
func WithMediaStore(media ports.MediaStore) Option {
	return func(s *Server) {
		s.media = media
	}
}

// WithMetrics counts graph mutations and saves and serves /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer builds a Server over a module store and a session manager.
func NewServer(modules ports.ModuleStore, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		modules:  modules,
		sessions: sessions,
		logger:   logging.NewNop(),
		Streams:  NewStreamManager(),
	}
	for _, opt := range opts {
		opt(s)
	}

	editOpts := []editor.Option{editor.WithLogger(s.logger)}
	if s.metrics != nil {
		editOpts = append(editOpts,
			editor.WithListener(s.metrics.GraphListener()),
			editor.WithSaveObserver(s.metrics.ObserveSave),
		)
	}
	s.editor = editor.New(modules, editOpts...)
	return s
}

// NewHandler creates the routed http.Handler.
func NewHandler(modules ports.ModuleStore, sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(modules, sessions, opts...).Routes()
}

// Routes mounts every endpoint on a chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/modules", func(r chi.Router) {
		r.Get("/", s.ListModules)
		r.Post("/", s.CreateModule)
		r.Route("/{moduleID}", func(r chi.Router) {
			r.Get("/", s.GetModule)
			r.Patch("/", s.UpdateModule)
			r.Delete("/", s.DeleteModule)

			r.Get("/graph", s.GetGraph)
			r.Get("/validate", s.ValidateGraph)
			r.Get("/mermaid", s.GetMermaid)
			r.Get("/events", s.SubscribeEvents)

			r.Post("/nodes", s.AddNode)
			r.Patch("/nodes/{nodeID}", s.UpdateNodeConfig)
			r.Delete("/nodes/{nodeID}", s.DeleteNode)
			r.Put("/nodes/{nodeID}/position", s.MoveNode)
			r.Get("/nodes/{nodeID}/targets", s.GetTargets)
			r.Post("/nodes/{nodeID}/choices", s.AddChoice)
			r.Patch("/nodes/{nodeID}/choices/{choiceID}", s.UpdateChoice)
			r.Delete("/nodes/{nodeID}/choices/{choiceID}", s.RemoveChoice)

			r.Post("/edges", s.Connect)
			r.Delete("/edges", s.Disconnect)

			r.Post("/sessions", s.StartSession)
		})
	})

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", s.GetSession)
		r.Delete("/", s.DeleteSession)
		r.Get("/summary", s.GetSummary)
		r.Post("/advance", s.Advance)
		r.Post("/finish", s.Finish)
	})

	if s.media != nil {
		r.Get("/media", s.ListMedia)
		r.Put("/media/{name}", s.UploadMedia)
		r.Delete("/media/{name}", s.DeleteMedia)
	}
	return r
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "nestflow-http",
		"version": strings.TrimSpace(nestflow.Version),
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrModuleNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrMediaNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSelfConnection),
		errors.Is(err, domain.ErrChoiceNotFound),
		errors.Is(err, domain.ErrNotRouter),
		errors.Is(err, domain.ErrUnknownNodeType),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPlaybackFinished),
		errors.Is(err, domain.ErrEmptyGraph):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(msg, "err", err)
	} else {
		s.logger.Debug(msg, "err", err, "status", status)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
