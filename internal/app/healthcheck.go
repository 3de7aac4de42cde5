package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vk/sotgo/internal/controller"
	"github.com/vk/sotgo/internal/ctxlog"
	"github.com/vk/sotgo/internal/tracestore"
)

// deferTimeout bounds how long a handler waits for the loop to apply a
// mutation.
const deferTimeout = 2 * time.Second

// router builds the health and introspection routes.
func (a *App) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(a.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", a.handleHealth)
	r.Get("/stats", a.handleStats)
	r.Get("/graph", a.handleGraph)
	r.Get("/traces", a.handleTraces)
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", a.handleTasks)
		r.Post("/{name}/keep", a.handleKeep)
		r.Delete("/{name}", a.handleRemove)
	})
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctxlog.WithLogger(r.Context(), logger)))
			logger.Debug("HTTP request served.",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

type tasksView struct {
	RunID string                  `json:"run_id"`
	Time  int64                   `json:"time"`
	Stack []string                `json:"stack"`
	Last  []controller.TaskReport `json:"last_cycle"`
	Error string                  `json:"error,omitempty"`
}

func (a *App) handleTasks(w http.ResponseWriter, r *http.Request) {
	snap := a.controller.Snapshot()
	view := tasksView{RunID: snap.RunID.String(), Time: int64(snap.Time), Stack: snap.Stack}
	if view.Stack == nil {
		view.Stack = []string{}
	}
	if snap.Last != nil {
		view.Last = snap.Last.Tasks
		view.Error = snap.Last.ErrorMessage()
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *App) handleGraph(w http.ResponseWriter, r *http.Request) {
	graph := a.controller.Snapshot().Graph
	if graph == "" {
		http.Error(w, "graph not rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	fmt.Fprint(w, graph)
}

type statsView struct {
	CycleStats
	Trace tracestore.Summary `json:"trace"`
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	sum, err := a.traces.Summary(r.Context(), a.controller.RunID())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, statsView{CycleStats: a.stats.summary(), Trace: sum})
}

func (a *App) handleTraces(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", s))
			return
		}
		limit = n
	}
	recs, err := a.traces.List(r.Context(), a.controller.RunID(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []tracestore.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (a *App) handleKeep(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	mt, ok := a.metaTask(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown task %q", name))
		return
	}
	err := a.await(r.Context(), a.controller.Defer(func(*controller.Controller) error {
		return mt.Keep()
	}))
	a.respondMutation(w, r, name, "keep", err)
}

func (a *App) handleRemove(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	mt, ok := a.metaTask(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown task %q", name))
		return
	}
	err := a.await(r.Context(), a.controller.Defer(func(c *controller.Controller) error {
		if err := c.Remove(mt.Task().Name()); err != nil {
			return err
		}
		a.mu.Lock()
		delete(a.metatasks, name)
		a.mu.Unlock()
		return mt.Close()
	}))
	a.respondMutation(w, r, name, "remove", err)
}

var errLoopStalled = errors.New("control loop did not reach the next cycle in time")

// await waits for a deferred mutation to be applied by the loop.
func (a *App) await(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(deferTimeout):
		return errLoopStalled
	}
}

func (a *App) respondMutation(w http.ResponseWriter, r *http.Request, name, op string, err error) {
	switch {
	case err == nil:
		ctxlog.FromContext(r.Context()).Info("Task updated.", "task", name, "op", op)
		writeJSON(w, http.StatusOK, map[string]string{"task": name, "status": op + " applied"})
	case errors.Is(err, errLoopStalled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusConflict, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// startServer listens on port and serves the router in the background.
func (a *App) startServer(ctx context.Context, port int) error {
	logger := ctxlog.FromContext(ctx)
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("health check server: %w", err)
	}
	a.httpServer = &http.Server{
		Handler:           a.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Health check server starting.", "address", fmt.Sprintf("http://localhost:%d/health", port))
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly.", "error", err)
		}
	}()
	return nil
}

func (a *App) closeServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("Shutting down health check server.")
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Health check server shutdown failed.", "error", err)
	}
}
