// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/z5labs/gateway"
	"github.com/z5labs/gateway/internal/poll"
	"github.com/z5labs/gateway/internal/try"
	"github.com/z5labs/gateway/pkg/noop"
	"github.com/z5labs/gateway/pkg/slogfield"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPollInterval is how long [Server.Run] waits for a pending
// connection before checking whether it should stop.
const DefaultPollInterval = time.Second

// Config is the configuration the gateway process unmarshals for its server.
type Config struct {
	Host         string        `config:"host"`
	Port         int           `config:"port"`
	PollInterval time.Duration `config:"poll_interval"`
	AuthMarker   string        `config:"auth_marker"`
}

// Options returns the [Option]s described by cfg.
func (cfg Config) Options() []Option {
	opts := []Option{AuthMarker(cfg.AuthMarker)}
	if cfg.PollInterval > 0 {
		opts = append(opts, PollInterval(cfg.PollInterval))
	}
	return opts
}

type options struct {
	logHandler   slog.Handler
	pollInterval time.Duration
	authMarker   string
	errors       io.Writer
	environ      func() []string
	tracer       trace.Tracer
}

// Option
type Option func(*options)

// LogHandler
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// PollInterval configures the interval used by [Server.Run].
//
// Default interval is [DefaultPollInterval].
func PollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// AuthMarker sets the value exposed to applications under
// [gateway.KeyAuthentication]. The key is present in every environ.
//
// Default marker is [DefaultAuthMarker].
func AuthMarker(marker string) Option {
	return func(o *options) {
		o.authMarker = marker
	}
}

// ErrorSink sets the writer exposed to applications under [gateway.KeyErrors].
//
// Default is os.Stderr.
func ErrorSink(w io.Writer) Option {
	return func(o *options) {
		o.errors = w
	}
}

// ProcessEnv sets the source of process environment variables copied
// into every environ, in "key=value" form.
//
// Default is os.Environ.
func ProcessEnv(f func() []string) Option {
	return func(o *options) {
		o.environ = f
	}
}

// TracerProvider sets the provider used to trace requests.
//
// Default is the global provider.
func TracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = tp.Tracer("github.com/z5labs/gateway/server")
	}
}

// ApplicationError wraps any failure raised while the application
// was serving a request.
type ApplicationError struct {
	Cause error
}

// Error implements the error interface.
func (e ApplicationError) Error() string {
	return fmt.Sprintf("application failed: %s", e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e ApplicationError) Unwrap() error {
	return e.Cause
}

// ServeLoopError wraps the failure which stopped [Server.ServeForever].
type ServeLoopError struct {
	Cause error
}

// Error implements the error interface.
func (e ServeLoopError) Error() string {
	return fmt.Sprintf("serve loop stopped: %s", e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e ServeLoopError) Unwrap() error {
	return e.Cause
}

// Server hosts a single [gateway.Application] and handles exactly one
// connection at a time.
type Server struct {
	log    *slog.Logger
	tracer trace.Tracer

	ln     *net.TCPListener
	poller *poll.Poller
	app    gateway.Application

	interval   time.Duration
	authMarker string
	errors     io.Writer
	environ    func() []string

	resp response
}

// DefaultAuthMarker is exposed under [gateway.KeyAuthentication] when no
// [AuthMarker] is configured. Being empty, it never satisfies the
// authentication middleware.
const DefaultAuthMarker = ""

// New binds host:port and registers it for readiness notifications.
// Use port 0 to bind any free port.
func New(host string, port int, app gateway.Application, opts ...Option) (*Server, error) {
	o := &options{
		logHandler:   noop.LogHandler{},
		pollInterval: DefaultPollInterval,
		authMarker:   DefaultAuthMarker,
		errors:       os.Stderr,
		environ:      os.Environ,
		tracer:       otel.Tracer("github.com/z5labs/gateway/server"),
	}
	for _, opt := range opts {
		opt(o)
	}

	ln, err := Listen(context.Background(), host, port)
	if err != nil {
		return nil, err
	}

	rc, err := ln.SyscallConn()
	if err != nil {
		ln.Close()
		return nil, err
	}
	poller, err := poll.New(rc)
	if err != nil {
		ln.Close()
		return nil, err
	}

	log := slog.New(o.logHandler)
	s := &Server{
		log:        log,
		tracer:     o.tracer,
		ln:         ln,
		poller:     poller,
		app:        app,
		interval:   o.pollInterval,
		authMarker: o.authMarker,
		errors:     o.errors,
		environ:    o.environ,
		resp: response{
			log: log,
		},
	}
	return s, nil
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Close releases the readiness registration and the listening socket.
func (s *Server) Close() error {
	perr := s.poller.Close()
	lerr := s.ln.Close()
	if perr != nil {
		return perr
	}
	return lerr
}

// Run implements the [gateway.Runtime] interface. It serves until ctx
// is cancelled and then closes the server.
func (s *Server) Run(ctx context.Context) (err error) {
	defer try.Close(&err, s)

	return s.ServeForever(ctx, s.interval)
}

// ServeForever waits up to interval for a pending connection, handles
// it to completion and repeats. ctx is only checked between waits.
// Once ctx is cancelled ServeForever returns nil.
//
// A failure to wait or to accept is fatal. It is logged, returned as
// a [ServeLoopError] and the server never accepts again. Failures
// handling a single connection are logged and never stop the loop.
func (s *Server) ServeForever(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	s.log.InfoContext(
		ctx,
		"serving",
		slogfield.Addr("addr", s.Addr()),
		slogfield.Duration("poll_interval", interval),
	)

	err := s.serve(ctx, interval)
	if err != nil {
		s.log.ErrorContext(ctx, "serve loop stopped", slogfield.Error(err))
		return ServeLoopError{Cause: err}
	}
	s.log.InfoContext(ctx, "stopped serving")
	return nil
}

func (s *Server) serve(ctx context.Context, interval time.Duration) (err error) {
	defer try.Recover(&err)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ready, err := s.poller.Wait(interval)
		if err != nil {
			return err
		}
		if !ready {
			continue
		}

		err = s.handleRequest(ctx)
		if err != nil {
			return err
		}
	}
}

// handleRequest accepts a single connection and handles it to completion.
// Only a failure to accept is returned.
func (s *Server) handleRequest(ctx context.Context) error {
	nc, err := s.ln.Accept()
	if err != nil {
		return err
	}

	spanCtx, span := s.tracer.Start(
		context.WithoutCancel(ctx),
		"gateway.request",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("net.peer.addr", nc.RemoteAddr().String())),
	)
	defer span.End()

	c := newConn(s.log, nc)
	defer func() {
		err := c.finish(spanCtx)
		if err != nil {
			s.log.WarnContext(spanCtx, "failed to close connection", slogfield.Error(err))
		}
	}()

	err = s.handle(spanCtx, span, c)
	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	attrs := []slog.Attr{
		slogfield.Addr("remote_addr", nc.RemoteAddr()),
		slogfield.Error(err),
	}
	var perr try.PanicError
	if errors.As(err, &perr) {
		attrs = append(attrs, slogfield.String("stack", string(perr.Stack)))
	}
	s.log.LogAttrs(spanCtx, slog.LevelError, "failed to handle request", attrs...)
	return nil
}

func (s *Server) handle(ctx context.Context, span trace.Span, c *conn) (err error) {
	defer try.Recover(&err)

	rl, err := ReadRequestLine(c.r)
	if err != nil {
		return err
	}
	span.SetAttributes(
		attribute.String("gateway.request.method", rl.Method),
		attribute.String("gateway.request.target", rl.Target),
		attribute.String("gateway.request.protocol", rl.Protocol),
	)

	env := s.buildEnviron(c, rl)

	s.resp.out = c
	defer func() {
		s.resp.out = nil
	}()

	body, err := s.serveApp(ctx, env)
	s.resp.body = body
	if err != nil {
		s.resp.close(ctx)
		return ApplicationError{Cause: err}
	}

	err = s.resp.finish(ctx)
	if err != nil {
		return ApplicationError{Cause: err}
	}
	return nil
}

func (s *Server) serveApp(ctx context.Context, env gateway.Environ) (body gateway.Body, err error) {
	defer try.Recover(&err)

	return s.app.Serve(ctx, env, s.resp.startResponse(ctx))
}
