// Package server exposes lineage extraction over HTTP.
//
// # Routes
//
//	GET  /healthz                 liveness and build information
//	POST /v1/lineage              extract lineage for a batch of objects
//	GET  /v1/lineage/{object}     extract lineage for one object
//
// Both lineage routes accept direction, max_distance and concurrency
// overrides (JSON body fields for POST, query parameters for GET). GET also
// accepts format=json|csv|markdown|dot.
//
// Input errors map to 400 and lineage oracle failures to 502. Error bodies
// are JSON objects with "error" and "code" fields.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/lineagewalk/pkg/buildinfo"
	"github.com/matzehuels/lineagewalk/pkg/errors"
	lwio "github.com/matzehuels/lineagewalk/pkg/io"
	"github.com/matzehuels/lineagewalk/pkg/lineage"
	"github.com/matzehuels/lineagewalk/pkg/observability"
	"github.com/matzehuels/lineagewalk/pkg/render/nodelink"
)

// MaxObjectsPerRequest bounds the batch size of POST /v1/lineage.
const MaxObjectsPerRequest = 100

// Options configures a Server.
type Options struct {
	Defaults lineage.Options // Traversal settings used when a request omits them
	Logger   *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	extractor *lineage.Extractor
	defaults  lineage.Options
	logger    *log.Logger
	router    chi.Router
}

// New creates a Server backed by x.
func New(x *lineage.Extractor, opts Options) *Server {
	s := &Server{
		extractor: x,
		defaults:  opts.Defaults.WithDefaults(),
		logger:    opts.Logger,
	}
	if s.logger == nil {
		s.logger = s.defaults.Logger
	}
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/lineage", func(r chi.Router) {
		r.Post("/", s.handleExtract)
		r.Get("/{object}", s.handleExtractOne)
	})
	s.router = r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		dur := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), dur)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", dur.Round(time.Millisecond), "request_id", chimw.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

// extractRequest is the body of POST /v1/lineage.
type extractRequest struct {
	Objects     []string `json:"objects"`
	Direction   string   `json:"direction,omitempty"`
	MaxDistance int      `json:"max_distance,omitempty"`
	Concurrency int      `json:"concurrency,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if len(req.Objects) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "objects must not be empty"))
		return
	}
	if len(req.Objects) > MaxObjectsPerRequest {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "at most %d objects per request", MaxObjectsPerRequest))
		return
	}

	roots := make([]lineage.ObjectKey, 0, len(req.Objects))
	for _, o := range req.Objects {
		k, err := lineage.ParseObjectKey(o)
		if err != nil {
			s.writeError(w, err)
			return
		}
		roots = append(roots, k)
	}
	opts, err := s.options(req.Direction, req.MaxDistance, req.Concurrency)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.extractor.Extract(r.Context(), roots, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = lwio.WriteJSON(w, res)
}

func (s *Server) handleExtractOne(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "object"))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidIdentifier, err, "invalid object in path"))
		return
	}
	root, err := lineage.ParseObjectKey(name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	maxDistance, err := intParam(q.Get("max_distance"), "max_distance")
	if err != nil {
		s.writeError(w, err)
		return
	}
	concurrency, err := intParam(q.Get("concurrency"), "concurrency")
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := s.options(q.Get("direction"), maxDistance, concurrency)
	if err != nil {
		s.writeError(w, err)
		return
	}
	format := q.Get("format")
	if format == "" {
		format = lwio.FormatJSON
	}
	contentType, ok := contentTypes[format]
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format))
		return
	}

	res, err := s.extractor.Extract(r.Context(), []lineage.ObjectKey{root}, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if format == "dot" {
		_, _ = w.Write([]byte(nodelink.ToDOT(res.Table, nodelink.Options{Detailed: true})))
		return
	}
	_ = lwio.Write(w, res, format)
}

var contentTypes = map[string]string{
	lwio.FormatJSON:     "application/json",
	lwio.FormatCSV:      "text/csv; charset=utf-8",
	lwio.FormatMarkdown: "text/markdown; charset=utf-8",
	"dot":               "text/vnd.graphviz; charset=utf-8",
}

// options overlays request overrides on the server defaults.
func (s *Server) options(direction string, maxDistance, concurrency int) (lineage.Options, error) {
	opts := s.defaults
	if direction != "" {
		d, err := lineage.ParseDirection(direction)
		if err != nil {
			return opts, err
		}
		opts.Direction = d
	}
	if maxDistance != 0 {
		opts.MaxDistance = maxDistance
	}
	if concurrency != 0 {
		opts.Concurrency = concurrency
	}
	return opts, opts.Validate()
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer", name)
	}
	return n, nil
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidIdentifier, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeLineageQuery, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(code),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
