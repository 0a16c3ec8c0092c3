package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/vrchime/internal/history"
	"github.com/loykin/vrchime/internal/launcher"
	"github.com/loykin/vrchime/internal/process"
	"github.com/loykin/vrchime/internal/store"
	"github.com/loykin/vrchime/internal/version"
)

// Resolver returns the current install path configuration.
type Resolver interface {
	Resolve() store.ResolvedConfig
}

// Launcher runs launch requests.
type Launcher interface {
	Launch(req process.Request) (launcher.Outcome, error)
}

// Router provides embeddable HTTP handlers for resolving and launching.
// Endpoints:
//
//	GET  {basePath}/config    resolved configuration
//	GET  {basePath}/version   version string
//	POST {basePath}/launch    body: {"game_path","file","count","arg_mode"}
//	GET  {basePath}/history   query: limit=N
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	resolver Resolver
	launcher Launcher
	history  history.Sink
	argMode  process.ArgMode
	basePath string
	logger   *slog.Logger
}

type Option func(*Router)

func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithHistory exposes sink on GET /history when it implements history.Reader.
func WithHistory(s history.Sink) Option {
	return func(r *Router) { r.history = s }
}

// WithArgMode sets the mode used when a request omits arg_mode.
func WithArgMode(m process.ArgMode) Option {
	return func(r *Router) {
		if m != "" {
			r.argMode = m
		}
	}
}

// NewRouter constructs a new Router with configurable basePath.
// Example basePath: "/api" results in /api/config, /api/launch, ...
func NewRouter(res Resolver, l Launcher, basePath string, opts ...Option) *Router {
	r := &Router{
		resolver: res,
		launcher: l,
		argMode:  process.ArgModeLegacy,
		basePath: sanitizeBase(basePath),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	r.logger = r.logger.With("component", "server")
	return r
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	r.Mount(g.Group(r.basePath))
	return g
}

// Mount registers the endpoints on an existing gin group.
func (r *Router) Mount(group *gin.RouterGroup) {
	group.GET("/config", r.handleConfig)
	group.GET("/version", r.handleVersion)
	group.POST("/launch", r.handleLaunch)
	group.GET("/history", r.handleHistory)
}

// NewServer builds a standalone HTTP server on addr; the caller runs
// ListenAndServe and Shutdown.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// --- Handlers ---

type errorResp struct {
	Error    string  `json:"error"`
	Index    *uint32 `json:"index,omitempty"`
	Launched *uint32 `json:"launched,omitempty"`
}

// ConfigResponse is returned by GET /config.
type ConfigResponse struct {
	Text     string       `json:"text"`
	GamePath string       `json:"game_path"`
	Source   store.Source `json:"source"`
}

// VersionResponse is returned by GET /version.
type VersionResponse struct {
	Version string `json:"version"`
}

// LaunchResponse is returned by a successful POST /launch.
type LaunchResponse struct {
	Message  string `json:"message"`
	Launched uint32 `json:"launched"`
	LaunchID string `json:"launch_id"`
}

// LaunchRequest is the POST /launch body.
type LaunchRequest struct {
	GamePath string `json:"game_path"`
	File     string `json:"file"`
	Count    uint32 `json:"count"`
	ArgMode  string `json:"arg_mode,omitempty"`
}

func (r *Router) handleConfig(c *gin.Context) {
	cfg := r.resolver.Resolve()
	writeJSON(c, http.StatusOK, ConfigResponse{Text: cfg.Text(), GamePath: cfg.InstallPath, Source: cfg.Source})
}

func (r *Router) handleVersion(c *gin.Context) {
	writeJSON(c, http.StatusOK, VersionResponse{Version: version.Get()})
}

func (r *Router) handleLaunch(c *gin.Context) {
	var body LaunchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	mode := r.argMode
	if body.ArgMode != "" {
		m, err := process.ParseArgMode(body.ArgMode)
		if err != nil {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
			return
		}
		mode = m
	}
	req := process.Request{
		InstallPath: body.GamePath,
		PayloadFile: body.File,
		Count:       body.Count,
		ArgMode:     mode,
	}
	out, err := r.launcher.Launch(req)
	if err != nil {
		code, resp := launchError(err)
		if launcher.IsUserError(err) {
			r.logger.Info("launch rejected", "error", err)
		} else {
			r.logger.Error("launch failed", "error", err)
		}
		writeJSON(c, code, resp)
		return
	}
	writeJSON(c, http.StatusOK, LaunchResponse{Message: out.Message(), Launched: out.Launched, LaunchID: out.LaunchID})
}

func launchError(err error) (int, errorResp) {
	var ie *launcher.InvalidInputError
	var pe *launcher.PathNotFoundError
	var lf *launcher.LaunchFailedError
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest, errorResp{Error: err.Error()}
	case errors.As(err, &pe):
		return http.StatusNotFound, errorResp{Error: err.Error()}
	case errors.As(err, &lf):
		idx, n := lf.Index, lf.Launched()
		return http.StatusInternalServerError, errorResp{Error: err.Error(), Index: &idx, Launched: &n}
	default:
		return http.StatusInternalServerError, errorResp{Error: err.Error()}
	}
}

func (r *Router) handleHistory(c *gin.Context) {
	rd, ok := r.history.(history.Reader)
	if !ok {
		writeJSON(c, http.StatusNotImplemented, errorResp{Error: "history is not available"})
		return
	}
	limit, ok := parseLimit(c.Query("limit"))
	if !ok {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "limit must be a positive integer"})
		return
	}
	evs, err := rd.Recent(c.Request.Context(), limit)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if evs == nil {
		evs = []history.Event{}
	}
	writeJSON(c, http.StatusOK, evs)
}
