// Package server serves rendering over HTTP.
package server

import (
	"io"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weaveworks/common/middleware"

	"github.com/fluxcd/kubeingest/metrics"
	kierr "github.com/fluxcd/kubeingest/pkg/errors"
	transport "github.com/fluxcd/kubeingest/pkg/http"
	"github.com/fluxcd/kubeingest/pkg/ingest"
	"github.com/fluxcd/kubeingest/pkg/registry"
	"github.com/fluxcd/kubeingest/pkg/transform"
)

// MaxBodyBytes limits the size of manifests accepted for rendering.
const MaxBodyBytes = 16 << 20

var (
	requestDuration = stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace: "kubeingest",
		Name:      "request_duration_seconds",
		Help:      "Time (in seconds) spent serving HTTP requests.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{metrics.LabelMethod, metrics.LabelRoute, "status_code", "ws"})
)

func init() {
	stdprometheus.MustRegister(requestDuration)
}

// NewRouter gives the API router, with anything not matching a
// route answered with 404.
func NewRouter() *mux.Router {
	r := transport.NewAPIRouter()
	r.NewRoute().Name("NotFound").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteError(w, r, http.StatusNotFound, transport.MakeAPINotFound(r.URL.Path))
	})
	return r
}

// Server has what's needed to answer requests.
type Server struct {
	Ingester *ingest.Ingester
	Version  string
}

func NewHandler(s Server, r *mux.Router, logger log.Logger) http.Handler {
	handle := HTTPServer{s}
	for route, handlerFunc := range map[string]http.Handler{
		transport.Ping:    http.HandlerFunc(handle.Ping),
		transport.Version: http.HandlerFunc(handle.Version),
		transport.Kinds:   http.HandlerFunc(handle.Kinds),
		transport.Render:  http.HandlerFunc(handle.Render),
		transport.Metrics: promhttp.Handler(),
	} {
		r.Get(route).Handler(logging(handlerFunc, log.With(logger, "method", route)))
	}

	return middleware.Instrument{
		RouteMatcher: r,
		Duration:     requestDuration,
	}.Wrap(r)
}

type HTTPServer struct {
	server Server
}

func (s HTTPServer) ingester() *ingest.Ingester {
	if s.server.Ingester == nil {
		return &ingest.Ingester{}
	}
	return s.server.Ingester
}

func (s HTTPServer) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s HTTPServer) Version(w http.ResponseWriter, r *http.Request) {
	transport.JSONResponse(w, r, s.server.Version)
}

// Kinds lists the "<apiVersion>/<kind>" pairs that can be rendered.
func (s HTTPServer) Kinds(w http.ResponseWriter, r *http.Request) {
	table := s.ingester().Registry
	if table == nil {
		table = registry.Default()
	}
	transport.Response(w, r, table.Keys())
}

// Render ingests the manifests in the request body. The query
// parameters `namespace` (given to namespaced resources without
// one), `prefix` (for resource names), and `kubeVersion` (to reject
// removed APIs) are optional.
func (s HTTPServer) Render(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		transport.WriteError(w, r, http.StatusBadRequest, errors.Wrap(err, "reading request body"))
		return
	}
	if len(body) == 0 {
		transport.ErrorResponse(w, r, transport.ErrorEmptyBody)
		return
	}

	query := r.URL.Query()
	opts := ingest.Options{ResourcePrefix: query.Get("prefix")}
	if ns := query.Get("namespace"); ns != "" {
		opts.Transformations = transform.Pipeline{transform.DefaultNamespace(ns)}
	}
	if kv := query.Get("kubeVersion"); kv != "" {
		v, err := semver.NewVersion(kv)
		if err != nil {
			transport.ErrorResponse(w, r, &kierr.Error{
				Type: kierr.User,
				Help: "The kubeVersion parameter " + kv + " is not a valid version.",
				Err:  err,
			})
			return
		}
		opts.KubeVersion = v
	}

	res, err := s.ingester().YAML(body, "request", opts)
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	result, err := transport.MakeRenderResult(res)
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.Response(w, r, result)
}

type codeWriter struct {
	http.ResponseWriter
	code int
}

func (w *codeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func logging(next http.Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		cw := &codeWriter{w, http.StatusOK}
		next.ServeHTTP(cw, r)
		logger.Log(
			"url", r.URL.String(),
			"took", time.Since(begin).String(),
			"status_code", cw.code,
		)
	})
}
