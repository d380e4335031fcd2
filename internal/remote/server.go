// Package remote is the localhost control API: HTTP commands for the
// frame loop and a websocket stream of the player state.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Faultbox/omnistep/internal/engine/camera"
	"github.com/Faultbox/omnistep/internal/engine/motion"
	"github.com/Faultbox/omnistep/internal/engine/spatial"
)

// Observer receives API metrics. *telemetry.Metrics implements it.
type Observer interface {
	RecordRequest(method, endpoint string, status int, d time.Duration)
	RecordRejected(reason string)
	StreamClients(n int)
	CommandDropped()
}

type nopObserver struct{}

func (nopObserver) RecordRequest(string, string, int, time.Duration) {}
func (nopObserver) RecordRejected(string)                            {}
func (nopObserver) StreamClients(int)                                {}
func (nopObserver) CommandDropped()                                  {}

// Server owns the router, the command queue and the stream hub. Nothing
// runs until Start or Run.
type Server struct {
	cfg     Config
	router  *chi.Mux
	queue   *Queue
	hub     *Hub
	limiter *ipLimiter
	obs     Observer
	log     *zap.Logger

	state    atomic.Pointer[motion.Snapshot]
	metrics  http.Handler
	lastSent time.Time
}

// Options are optional collaborators of a server.
type Options struct {
	Observer Observer
	// Metrics, when set, is served on /metrics.
	Metrics http.Handler
	Log     *zap.Logger
}

// NewServer builds the router. It starts no goroutines.
func NewServer(cfg Config, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	if cfg.MaxClients < 1 {
		cfg.MaxClients = 1
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = DefaultConfig().ReplyTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = float64(rate.Inf)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if addr, ok := loopback(cfg.Listen); !ok {
		log.Warn("control API forced to loopback", zap.String("requested", cfg.Listen), zap.String("listen", addr))
		cfg.Listen = addr
	}

	s := &Server{
		cfg:     cfg,
		queue:   NewQueue(cfg.QueueSize),
		hub:     newHub(cfg.MaxClients, obs, log),
		limiter: newIPLimiter(cfg.RequestsPerSecond, cfg.Burst, func() { obs.RecordRejected("rate_limit") }),
		obs:     obs,
		log:     log,
		metrics: opts.Metrics,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(s.limiter.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Get("/ws", s.hub.handle)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/position", s.handlePosition)
		r.Post("/impulse", s.handleImpulse)
		r.Post("/respawn", s.handleRespawn)

		r.Post("/raycast", s.handleRayCast)
		r.Post("/nearest", s.handleNearest)
		r.Post("/player/raycast", s.handlePlayerRayCast)

		r.Route("/dynamic", func(r chi.Router) {
			r.Put("/{name}", s.handleDynamicSet)
			r.Delete("/{name}", s.handleDynamicRemove)
			r.Delete("/", s.handleDynamicClear)
		})
	})
	return r
}

// observe records latency and status by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		s.obs.RecordRequest(r.Method, pattern, ww.Status(), time.Since(start))
	})
}

// Router returns the HTTP handler, for httptest.
func (s *Server) Router() http.Handler { return s.router }

// Queue returns the command queue the frame loop drains.
func (s *Server) Queue() *Queue { return s.queue }

// Hub returns the stream hub.
func (s *Server) Hub() *Hub { return s.hub }

// Addr returns the effective listen address.
func (s *Server) Addr() string { return s.cfg.Listen }

// Publish stores the latest player state and streams it at StreamHz.
func (s *Server) Publish(snap motion.Snapshot) {
	s.state.Store(&snap)
	if s.cfg.StreamHz <= 0 {
		return
	}
	now := time.Now()
	if now.Sub(s.lastSent) < time.Duration(float32(time.Second)/s.cfg.StreamHz) {
		return
	}
	s.lastSent = now
	s.hub.Broadcast("player:state", snap)
}

// Run serves until ctx is done and then shuts down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.hub.Run(ctx)
	go s.limiter.cleanupLoop(5 * time.Minute)
	defer s.limiter.Stop()

	errc := make(chan error, 1)
	go func() {
		s.log.Info("control API listening", zap.String("addr", s.cfg.Listen))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

type vecRequest struct {
	Vector        mgl32.Vec3 `json:"vector"`
	ClearVelocity bool       `json:"clear_velocity"`
}

type respawnRequest struct {
	// Position, when set, respawns at an explicit placement.
	Position *mgl32.Vec3 `json:"position"`
	Pitch    float32     `json:"pitch"`
	Yaw      float32     `json:"yaw"`
}

type rayRequest struct {
	Origin      mgl32.Vec3 `json:"origin"`
	Direction   mgl32.Vec3 `json:"direction"`
	MaxDistance float32    `json:"max_distance"`
}

type dynamicRequest struct {
	Triangles [][3]mgl32.Vec3 `json:"triangles"`
	Position  mgl32.Vec3      `json:"position"`
	Yaw       float32         `json:"yaw"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Load()
	if snap == nil {
		writeError(w, "no state yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var req vecRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, Command{Kind: KindSetPosition, Vector: req.Vector, ClearVelocity: req.ClearVelocity})
}

func (s *Server) handleImpulse(w http.ResponseWriter, r *http.Request) {
	var req vecRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, Command{Kind: KindImpulse, Vector: req.Vector, ClearVelocity: req.ClearVelocity})
}

func (s *Server) handleRespawn(w http.ResponseWriter, r *http.Request) {
	var req respawnRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	cmd := Command{Kind: KindRespawn}
	if req.Position != nil {
		m := camera.FromPitchYaw(*req.Position, mgl32.DegToRad(req.Pitch), mgl32.DegToRad(req.Yaw))
		cmd.World = &m
	}
	s.call(w, r, cmd)
}

func (s *Server) handleRayCast(w http.ResponseWriter, r *http.Request) {
	var req rayRequest
	if !decode(w, r, &req) {
		return
	}
	s.call(w, r, Command{Kind: KindRayCast, Vector: req.Origin, Direction: req.Direction, MaxDistance: maxDistance(req.MaxDistance)})
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	var req rayRequest
	if !decode(w, r, &req) {
		return
	}
	s.call(w, r, Command{Kind: KindFindNearest, Vector: req.Origin, MaxDistance: maxDistance(req.MaxDistance)})
}

func (s *Server) handlePlayerRayCast(w http.ResponseWriter, r *http.Request) {
	var req rayRequest
	if !decode(w, r, &req) {
		return
	}
	s.call(w, r, Command{Kind: KindRayCastPlayer, Vector: req.Origin, Direction: req.Direction})
}

func (s *Server) handleDynamicSet(w http.ResponseWriter, r *http.Request) {
	var req dynamicRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Triangles) == 0 {
		writeError(w, "no triangles", http.StatusBadRequest)
		return
	}
	tris := make([]spatial.Triangle, len(req.Triangles))
	for i, t := range req.Triangles {
		tris[i] = spatial.Triangle{A: t[0], B: t[1], C: t[2]}
	}
	p := req.Position
	obj := spatial.Object{
		Name:      chi.URLParam(r, "name"),
		Triangles: tris,
		Transform: mgl32.Translate3D(p[0], p[1], p[2]).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(req.Yaw))),
	}
	s.submit(w, Command{Kind: KindDynamicSet, Object: obj, Name: obj.Name})
}

func (s *Server) handleDynamicRemove(w http.ResponseWriter, r *http.Request) {
	s.call(w, r, Command{Kind: KindDynamicRemove, Name: chi.URLParam(r, "name")})
}

func (s *Server) handleDynamicClear(w http.ResponseWriter, r *http.Request) {
	s.submit(w, Command{Kind: KindDynamicClear})
}

// submit queues a command and answers 202.
func (s *Server) submit(w http.ResponseWriter, cmd Command) {
	if err := s.queue.Submit(cmd); err != nil {
		s.obs.CommandDropped()
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, Result{OK: true})
}

// call queues a command and answers with its result once the frame loop
// ran it.
func (s *Server) call(w http.ResponseWriter, r *http.Request, cmd Command) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ReplyTimeout)
	defer cancel()

	res, err := s.queue.Call(ctx, cmd)
	switch {
	case errors.Is(err, ErrQueueFull):
		s.obs.CommandDropped()
		writeError(w, err.Error(), http.StatusServiceUnavailable)
	case err != nil:
		writeError(w, "frame loop did not answer", http.StatusGatewayTimeout)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func maxDistance(d float32) float32 {
	if d <= 0 {
		return spatial.Unbounded
	}
	return d
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, Result{Error: msg})
}
