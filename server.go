package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ishangavidusha/httpserver/internal/metrics"
	"github.com/ishangavidusha/httpserver/internal/netpoll"
)

const (
	defaultPort           = 8080
	defaultServerName     = "go-httpserver"
	defaultMaxRequestSize = 8192
	defaultReadTimeout    = 5 * time.Second
	defaultPollInterval   = 100 * time.Millisecond

	// readChunkSize is the per-read buffer size while receiving a request.
	readChunkSize = 4096
)

var (
	crlfcrlf = []byte("\r\n\r\n")

	// ssePreamble is the fixed response head sent before a connection
	// becomes an event stream.
	ssePreamble = []byte("HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/event-stream\r\n" +
		"Cache-Control: no-cache\r\n" +
		"Connection: keep-alive\r\n\r\n")
)

// Server is a single-process HTTP/1.1 server multiplexing ordinary
// request/response traffic and Server-Sent-Events streams over one
// readiness-polling connection loop.
//
// One loop goroutine polls the listening socket together with every
// open stream client. Ordinary requests are accepted, parsed, and
// answered inline; stream handlers run on their own goroutine so a
// sleeping handler never blocks the listener. The loop survives any
// single bad request — only failures of the listening socket itself
// terminate it.
type Server struct {
	host           string
	port           int
	serverName     string
	maxRequestSize int
	readTimeout    time.Duration
	pollInterval   time.Duration
	cors           CORSConfig
	router         *Router
	logger         *slog.Logger
	hub            *EventHub

	boundPort atomic.Int32
}

// New creates a [Server] with the given options.
//
// A router with at least one route is required via [WithRouter]. Other
// options have sensible defaults:
//   - Port: 8080
//   - Max request size: 8192 bytes
//   - Read timeout: 5 seconds
//   - Poll interval: 100 milliseconds
//   - CORS: [DefaultCORSConfig]
func New(opts ...Option) (*Server, error) {
	cfg := &serverConfig{
		port:           defaultPort,
		serverName:     defaultServerName,
		maxRequestSize: defaultMaxRequestSize,
		readTimeout:    defaultReadTimeout,
		pollInterval:   defaultPollInterval,
		cors:           DefaultCORSConfig(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.router == nil || cfg.router.Len() == 0 {
		return nil, errors.New("at least one route is required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.metrics {
		cfg.router.Handle("/metrics", []string{"GET"}, metricsHandler)
	}

	return &Server{
		host:           cfg.host,
		port:           cfg.port,
		serverName:     cfg.serverName,
		maxRequestSize: cfg.maxRequestSize,
		readTimeout:    cfg.readTimeout,
		pollInterval:   cfg.pollInterval,
		cors:           cfg.cors,
		router:         cfg.router,
		logger:         logger,
		hub:            newEventHub(logger),
	}, nil
}

// Hub returns the server's [EventHub] for publishing events from
// outside stream handlers.
func (s *Server) Hub() *EventHub {
	return s.hub
}

// Port returns the port the server is bound to, or zero before
// [Server.Start] has begun listening. Useful with [WithPort](0).
func (s *Server) Port() int {
	return int(s.boundPort.Load())
}

// Start binds the listening socket and runs the connection loop.
//
// Start blocks until the context is cancelled, then closes the listener
// and every open stream. It returns a non-nil error only for fatal
// transport failures (bind, accept, poll); individual bad requests are
// answered with error responses and never stop the loop.
func (s *Server) Start(ctx context.Context) error {
	ln, err := netpoll.Listen(s.host, s.port)
	if err != nil {
		s.logger.Log(ctx, LevelCritical, "server error", "error", err)
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.boundPort.Store(int32(ln.Port()))
	s.logger.Info("server started", "port", ln.Port())

	defer func() {
		ln.Close()
		s.hub.closeAll()
		s.logger.Info("server stopped")
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		// the watched set is re-read every iteration so stream clients
		// registered since the last poll are included
		clients := s.hub.conns()
		fds := make([]int, 0, len(clients)+1)
		fds = append(fds, ln.FD())
		byFD := make(map[int]streamConn, len(clients))
		for _, c := range clients {
			fds = append(fds, c.FD())
			byFD[c.FD()] = c
		}

		ready, err := netpoll.Wait(fds, s.pollInterval)
		if err != nil {
			s.logger.Log(ctx, LevelCritical, "server error", "error", err)
			return err
		}

		for _, fd := range ready {
			if fd == ln.FD() {
				conn, err := ln.Accept()
				if err != nil {
					s.logger.Log(ctx, LevelCritical, "server error", "error", err)
					return err
				}
				s.logger.Info("new connection", "remote", conn.RemoteAddr())
				s.handleConn(ctx, conn)
				continue
			}
			if conn, ok := byFD[fd]; ok {
				s.probeClient(conn)
			}
		}
	}
}

// handleConn reads, parses, and answers one request. The connection is
// closed afterwards unless it was handed over to an event stream.
func (s *Server) handleConn(ctx context.Context, conn *netpoll.Conn) {
	streaming := false
	defer func() {
		if !streaming {
			conn.Close()
		}
	}()

	if err := conn.SetReadTimeout(s.readTimeout); err != nil {
		s.logger.Debug("failed to set read timeout", "error", err)
	}

	started := time.Now()

	raw, err := s.readRequest(conn)
	if err != nil {
		s.sendError(conn, "", started, err)
		return
	}
	if len(raw) == 0 {
		// peer connected and left without sending anything
		return
	}

	req, err := ParseRequest(raw)
	if err != nil {
		s.sendError(conn, "", started, err)
		return
	}
	s.logger.Info("request received", "method", req.Method, "path", req.Path, "remote", conn.RemoteAddr())

	// stream routes bypass ordinary routing and method checks
	if entry, ok := s.router.lookup(req.Path); ok && entry.isStream() {
		if err := s.startStream(ctx, conn, entry.stream, req.Headers); err != nil {
			s.sendError(conn, req.Method, started, err)
			return
		}
		streaming = true
		return
	}

	var resp *Response
	if req.Method == "OPTIONS" {
		resp, err = s.cors.handlePreflight(req.Headers)
		if err != nil {
			s.logger.Warn("preflight rejected", "error", err)
			resp = errorResponse(err)
		}
		s.cors.apply(resp, req.Headers.Get("Origin"))
	} else {
		resp, err = s.dispatch(req)
		if err != nil {
			s.logError(req, err)
			resp = errorResponse(err)
		}
		if origin := req.Headers.Get("Origin"); origin != "" {
			s.cors.apply(resp, origin)
		}
	}

	s.send(conn, resp)
	record(req.Method, resp.StatusCode, started)
}

// dispatch looks up and invokes the handler for an ordinary request.
// A handler panic is recovered and reported as a generic 500 with a
// correlation ID in the server log.
func (s *Server) dispatch(req *Request) (resp *Response, err error) {
	entry, ok := s.router.lookup(req.Path)
	if !ok {
		return nil, NewNotFoundError("Not Found")
	}
	handler, ok := entry.handlers[req.Method]
	if !ok {
		return nil, NewNotFoundError("Not Found")
	}

	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("handler panic",
				"correlation_id", correlationID,
				"method", req.Method,
				"path", req.Path,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			resp = nil
			err = NewHTTPError(500, "Internal Server Error")
		}
	}()
	return handler(req.Query, req.Headers, req.Body)
}

// startStream converts the connection into an event stream: it sends
// the SSE preamble, registers the client with the hub, and runs the
// handler on its own goroutine. The handler's context is cancelled
// when the client is unregistered or the server shuts down.
func (s *Server) startStream(ctx context.Context, conn *netpoll.Conn, handler StreamHandler, headers Headers) error {
	if _, err := conn.Write(ssePreamble); err != nil {
		return fmt.Errorf("failed to send stream preamble: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s.hub.register(conn, cancel)
	s.logger.Info("stream opened", "remote", conn.RemoteAddr())

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("stream handler panic",
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
			s.hub.unregister(conn)
			conn.Close()
			cancel()
			s.logger.Info("stream closed", "remote", conn.RemoteAddr())
		}()
		if err := handler(streamCtx, s.hub, headers); err != nil {
			s.logger.Error("stream handler error", "error", err)
		}
	}()
	return nil
}

// probeClient performs a liveness read on a stream client the poll
// reported readable. Zero bytes or a read error means the peer
// disconnected; any data an SSE client sends is discarded.
func (s *Server) probeClient(conn streamConn) {
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		s.logger.Debug("stream client disconnected", "remote", conn.RemoteAddr())
		s.hub.unregister(conn)
		conn.Close()
	}
}

// readRequest accumulates the raw bytes of one request. It reads in
// fixed-size chunks until the header terminator appears, then reads
// exactly Content-Length further bytes when that header is present.
// Without Content-Length the request has no body and the returned
// bytes stop at the end of the headers.
func (s *Server) readRequest(conn *netpoll.Conn) ([]byte, error) {
	buf := make([]byte, 0, readChunkSize)
	chunk := make([]byte, readChunkSize)

	headerEnd := -1
	for headerEnd < 0 {
		n, err := conn.Read(chunk)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// peer finished sending; an incomplete header block is
				// reported by the parser
				return buf, nil
			}
			if errors.Is(err, netpoll.ErrTimeout) {
				return nil, NewHTTPError(408, "Request Timeout")
			}
			return nil, fmt.Errorf("read failed: %w", err)
		}
		buf = append(buf, chunk[:n]...)
		if len(buf) > s.maxRequestSize {
			return nil, errPayloadTooLarge
		}
		headerEnd = bytes.Index(buf, crlfcrlf)
	}

	length, err := contentLength(buf[:headerEnd])
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return buf[:headerEnd], nil
	}

	total := headerEnd + len(crlfcrlf) + length
	if total > s.maxRequestSize {
		return nil, errPayloadTooLarge
	}
	for len(buf) < total {
		n, err := conn.Read(chunk)
		if err != nil {
			if errors.Is(err, netpoll.ErrTimeout) {
				return nil, NewHTTPError(408, "Request Timeout")
			}
			return nil, NewBadRequestError("incomplete request body")
		}
		buf = append(buf, chunk[:n]...)
	}
	return buf[:total], nil
}

// contentLength extracts the Content-Length value from a raw header
// block, or -1 when the header is absent.
func contentLength(header []byte) (int, error) {
	lines := strings.Split(string(header), "\r\n")
	for _, line := range lines[1:] {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(line[:idx]), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(line[idx+1:]))
			if err != nil || n < 0 {
				return 0, NewBadRequestError("invalid Content-Length header")
			}
			return n, nil
		}
	}
	return -1, nil
}

// sendError answers a failed request with a well-formed error response.
func (s *Server) sendError(conn *netpoll.Conn, method string, started time.Time, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		s.logger.Warn("request failed", "status", httpErr.StatusCode, "error", httpErr.Message)
	} else {
		s.logger.Error("unexpected error", "error", err)
	}
	resp := errorResponse(err)
	s.send(conn, resp)
	record(method, resp.StatusCode, started)
}

// send encodes and writes a response. Encoding failures fall back to a
// generic 500 so the client always sees a well-formed response.
func (s *Server) send(conn *netpoll.Conn, resp *Response) {
	wire, err := resp.Encode(s.serverName)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		wire, _ = errorResponse(NewHTTPError(500, "Internal Server Error")).Encode(s.serverName)
	}
	if _, err := conn.Write(wire); err != nil {
		s.logger.Debug("failed to write response", "remote", conn.RemoteAddr(), "error", err)
	}
}

// logError logs a dispatch failure at the severity its kind deserves.
func (s *Server) logError(req *Request, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		s.logger.Warn("request failed",
			"method", req.Method,
			"path", req.Path,
			"status", httpErr.StatusCode,
			"error", httpErr.Message,
		)
		return
	}
	s.logger.Error("handler error", "method", req.Method, "path", req.Path, "error", err)
}

// record updates the request metrics.
func record(method string, status int, started time.Time) {
	if method == "" {
		method = "unknown"
	}
	metrics.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())
}

// metricsHandler serves the Prometheus text exposition on /metrics.
func metricsHandler(query Query, headers Headers, body *string) (*Response, error) {
	out, err := metrics.Render()
	if err != nil {
		return nil, NewHTTPError(500, "failed to render metrics")
	}
	return NewResponse(string(out)).WithHeader("Content-Type", "text/plain; version=0.0.4; charset=utf-8"), nil
}
