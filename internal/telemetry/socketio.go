package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/sotgo/internal/controller"
	"github.com/vk/sotgo/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is the socket.io event carrying cycle reports.
const DefaultEvent = "cycle"

// SocketIOConfig configures the socket.io publisher.
type SocketIOConfig struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// SocketIO emits every report as one event on a socket.io connection.
// Reports published while the connection is down are dropped.
type SocketIO struct {
	event      string
	emit       func(event string, args ...any)
	disconnect func()
	connected  atomic.Bool
	dropped    atomic.Int64
}

// DialSocketIO connects to a socket.io server and waits for the connect
// event.
func DialSocketIO(ctx context.Context, cfg SocketIOConfig) (*SocketIO, error) {
	ctx = ctxlog.With(ctx, "publisher", "socketio", "url", cfg.URL)
	logger := ctxlog.FromContext(ctx)
	if cfg.Event == "" {
		cfg.Event = DefaultEvent
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 15 * time.Second
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse telemetry URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("telemetry URL %q must be absolute", cfg.URL)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	p := newSocketIO(cfg.Event,
		func(event string, args ...any) { io.Emit(event, args...) },
		func() { io.Disconnect() },
	)

	connectChan := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		p.connected.Store(true)
		logger.Info("Telemetry connected.", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.On(types.EventName("disconnect"), func(reason ...any) {
		p.connected.Store(false)
		logger.Warn("Telemetry disconnected.", "reason", reason)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	logger.Debug("Connecting telemetry publisher.")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return p, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(cfg.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", cfg.ConnectTimeout)
	}
}

func newSocketIO(event string, emit func(string, ...any), disconnect func()) *SocketIO {
	return &SocketIO{event: event, emit: emit, disconnect: disconnect}
}

// Publish emits r, or drops it when the connection is down.
func (p *SocketIO) Publish(_ context.Context, r *controller.Report) error {
	if !p.connected.Load() {
		p.dropped.Add(1)
		return nil
	}
	p.emit(p.event, payload(r))
	return nil
}

// Dropped returns the number of reports published while disconnected.
func (p *SocketIO) Dropped() int64 { return p.dropped.Load() }

func (p *SocketIO) Close() error {
	p.connected.Store(false)
	p.disconnect()
	return nil
}

func payload(r *controller.Report) map[string]any {
	tasks := make([]map[string]any, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		tasks = append(tasks, map[string]any{
			"name":       t.Name,
			"rows":       t.Rows,
			"error_norm": t.ErrorNorm,
			"gain":       t.Gain,
		})
	}
	out := map[string]any{
		"run_id":      r.RunID.String(),
		"time":        r.Time,
		"duration_us": r.Duration.Microseconds(),
		"tasks":       tasks,
		"dispatched":  r.Dispatched,
	}
	if r.Command != nil {
		out["command"] = r.Command
	}
	if r.Failed() {
		out["error"] = r.ErrorMessage()
	}
	return out
}
