// Package server runs custoscript eval commands received over WebSocket.
//
// Each text frame is a command (see ParseCommand). The script runs on a
// bounded worker pool with two natives: send(text) posts text back to the
// client as a frame and returns a fresh message id, and get_args() returns
// the command's arguments. After the top-level code, the entry function
// (main by default) is called. Compile and runtime errors are posted back
// wrapped in ``` fences.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/custos/custoscript"
)

// Defaults for Config fields left zero.
const (
	DefaultPath     = "/eval"
	DefaultEntry    = "main"
	DefaultTimeout  = 5 * time.Second
	DefaultMaxSteps = 1_000_000

	// DefaultMaxMessageSize is four times the 2000 character limit of a
	// chat message, in bytes.
	DefaultMaxMessageSize = 8 << 10
)

// Config holds eval server configuration.
type Config struct {
	// Addr is the TCP address ListenAndServe listens on.
	Addr string

	// Path is the WebSocket endpoint (default: /eval).
	Path string

	// Entry is the function called after the top-level code
	// (default: main).
	Entry string

	// Token, if set, must be presented as "Authorization: Bearer <token>"
	// to open a connection.
	Token string

	// Timeout bounds how long a command may wait for and use a worker.
	Timeout time.Duration

	// MaxSteps bounds the instructions a command may execute.
	MaxSteps int

	// MaxMessageSize bounds the size of an incoming frame in bytes. A
	// larger frame closes the connection.
	MaxMessageSize int64

	// Workers is the number of commands that may run at once
	// (default: runtime.NumCPU()).
	Workers int

	// Stdlib registers the standard natives besides send and get_args.
	Stdlib bool

	// Logger receives request logs. Default: slog.Default().
	Logger *slog.Logger
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.Entry == "" {
		c.Entry = DefaultEntry
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Server is the eval host.
type Server struct {
	config   Config
	log      *slog.Logger
	pool     *custoscript.Pool
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	mu   sync.Mutex
	http *http.Server
}

// New creates a server and starts its worker pool. Shutdown releases it.
func New(config Config) *Server {
	config.applyDefaults()

	s := &Server{
		config: config,
		log:    config.Logger,
		pool:   custoscript.NewPool(custoscript.PoolConfig{Workers: config.Workers}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Clients are bots, not browsers
			},
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc(config.Path, s.serveWS)
	return s
}

// Handler returns the HTTP handler serving the WebSocket endpoint.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on Config.Addr until Shutdown.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	s.http = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.http
	s.mu.Unlock()

	s.log.Info("eval server listening", "addr", s.config.Addr, "path", s.config.Path)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server, if running, and waits for running
// commands to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.pool.Close()
	return err
}

func (s *Server) authorized(r *http.Request) bool {
	if s.config.Token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+s.config.Token
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.log.Warn("rejected connection", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	conn.SetReadLimit(s.config.MaxMessageSize)
	client := &client{conn: conn}
	log := s.log.With("client", uuid.NewString())
	log.Info("client connected", "remote", r.RemoteAddr)

	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		conn.Close()
		log.Info("client disconnected")
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read failed", "err", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			s.handle(r.Context(), log, client, text)
		}(string(message))
	}
}

// handle runs one message. Messages that are not commands are ignored.
func (s *Server) handle(ctx context.Context, log *slog.Logger, c *client, text string) {
	cmd, err := ParseCommand(text)
	if errors.Is(err, ErrNotCommand) {
		return
	}

	log = log.With("request", uuid.NewString())
	if err != nil {
		log.Info("bad command", "err", err)
		c.reply(log, err.Error())
		return
	}

	prog, err := custoscript.Compile(cmd.Source)
	if err != nil {
		log.Info("compile failed", "err", err)
		c.reply(log, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	res, err := s.pool.Run(ctx, prog, &custoscript.Config{
		Args:     cmd.Args,
		Natives:  []*custoscript.Native{c.sendNative(log)},
		Entry:    s.config.Entry,
		Stdlib:   s.config.Stdlib,
		MaxSteps: s.config.MaxSteps,
	})
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("command timed out", "timeout", s.config.Timeout)
		c.reply(log, fmt.Sprintf("timed out after %s", s.config.Timeout))
	case err != nil:
		log.Info("command failed", "err", err, "elapsed", time.Since(start))
		c.reply(log, err.Error())
	default:
		log.Info("command finished", "steps", res.Steps, "elapsed", time.Since(start))
	}
}

// client serializes writes to one connection.
type client struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// post writes text as a frame. After a failed write the client is closed
// and later posts are dropped.
func (c *client) post(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		c.closed = true
		return err
	}
	return nil
}

// reply posts text fenced as a code block.
func (c *client) reply(log *slog.Logger, text string) {
	if err := c.post(codeBlock(text)); err != nil {
		log.Debug("reply failed", "err", err)
	}
}

// sendNative returns send(text): post text, return a message id.
// Anything but a string argument is ignored and yields none.
func (c *client) sendNative(log *slog.Logger) *custoscript.Native {
	return custoscript.NewNative("send", 0, func(args []custoscript.Value) custoscript.Value {
		if len(args) == 0 {
			return custoscript.None()
		}
		text, ok := args[0].AsString()
		if !ok {
			return custoscript.None()
		}
		if err := c.post(text); err != nil {
			log.Debug("send failed", "err", err)
			return custoscript.None()
		}
		return custoscript.String(uuid.NewString())
	})
}
