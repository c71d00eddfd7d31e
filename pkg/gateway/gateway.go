package gateway

import (
	"context"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ssargent/vifgate/pkg/codec"
)

const (
	DefaultPort    = 4016
	DefaultTimeout = 15 * time.Second
	DefaultComment = "vifgate"
)

// Config describes one venue host and the credentials sent in every
// request header.
type Config struct {
	Host     string
	Port     int
	Timeout  time.Duration
	SiteName string
	AuthKey  string
	AgentNo  string
	Comment  string
	// GatewayType is 0 for ticketing, 1 for concessions, 2 for vouchers.
	GatewayType  int
	MaxFrameSize int
}

// AuthInfo is the opaque auth_info header value.
func (c Config) AuthInfo() string {
	return c.AuthKey + c.AgentNo
}

// Exchange describes one request/response round trip. Err holds the
// failure, including a *HostError when the host answered with one.
type Exchange struct {
	Addr        string
	PacketID    string
	RequestCode int
	Request     string
	Response    string
	Started     time.Time
	Duration    time.Duration
	Err         error
}

// Observer is notified after every exchange, successful or not.
type Observer interface {
	ObserveExchange(ctx context.Context, ex Exchange)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ex Exchange)

func (f ObserverFunc) ObserveExchange(ctx context.Context, ex Exchange) { f(ctx, ex) }

// DialFunc opens the connection for one exchange.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger; the default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithObserver adds an exchange observer.
func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observers = append(g.observers, o) }
}

// WithDialer replaces the TCP dialer.
func WithDialer(dial DialFunc) Option {
	return func(g *Gateway) { g.dial = dial }
}

// Gateway talks to one venue host. Each call opens its own connection, so
// a Gateway is safe for concurrent use.
type Gateway struct {
	cfg       Config
	logger    *zap.Logger
	observers []Observer
	dial      DialFunc
}

// New returns a Gateway for cfg, filling in defaults for zero values.
func New(cfg Config, opts ...Option) *Gateway {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Comment == "" {
		cfg.Comment = DefaultComment
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = DefaultMaxFrameSize
	}

	g := &Gateway{cfg: cfg, logger: zap.NewNop()}
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	g.dial = dialer.DialContext
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the effective configuration.
func (g *Gateway) Config() Config { return g.cfg }

// Addr returns the host:port the gateway dials.
func (g *Gateway) Addr() string {
	return net.JoinHostPort(g.cfg.Host, strconv.Itoa(g.cfg.Port))
}

// NewRequest builds a request message carrying the configured header
// fields and a fresh packet id.
func (g *Gateway) NewRequest(requestCode int) (*codec.Message, error) {
	fields := map[string]any{
		"site_name":    g.cfg.SiteName,
		"comment":      g.cfg.Comment,
		"gateway_type": g.cfg.GatewayType,
	}
	if auth := g.cfg.AuthInfo(); auth != "" {
		fields["auth_info"] = auth
	}
	return codec.NewRequest(requestCode, fields)
}

// Send performs one exchange: dial, write the framed request, read the
// framed response and parse it. Transport failures are *ConnectionError.
// When the host reports an error the parsed response is returned together
// with a *HostError.
func (g *Gateway) Send(ctx context.Context, req *codec.Message) (*codec.Message, error) {
	requestCode, _ := req.RequestCode()
	ex := Exchange{
		Addr:        g.Addr(),
		PacketID:    req.PacketID(),
		RequestCode: requestCode,
		Request:     req.Content(),
		Started:     time.Now(),
	}

	resp, err := g.exchange(ctx, req, &ex)
	if err == nil {
		if n := resp.ErrorNumber(); n != 0 {
			err = &HostError{
				RequestCode: requestCode,
				PacketID:    resp.PacketID(),
				Number:      n,
				Text:        resp.ResponseText(),
			}
		}
	}
	ex.Duration = time.Since(ex.Started)
	ex.Err = err

	g.log(ex)
	for _, o := range g.observers {
		o.ObserveExchange(ctx, ex)
	}
	return resp, err
}

func (g *Gateway) exchange(ctx context.Context, req *codec.Message, ex *Exchange) (*codec.Message, error) {
	addr := ex.Addr
	conn, err := g.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Addr: addr, Err: err}
	}
	defer conn.Close()

	deadline := time.Now().Add(g.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, &ConnectionError{Op: "deadline", Addr: addr, Err: err}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := writeFrame(conn, req); err != nil {
		return nil, &ConnectionError{Op: "write", Addr: addr, Err: ctxErr(ctx, err)}
	}

	raw, err := readFrame(conn, g.cfg.MaxFrameSize)
	if err != nil {
		return nil, &ConnectionError{Op: "read", Addr: addr, Err: ctxErr(ctx, err)}
	}
	ex.Response = string(raw)

	resp, err := codec.ParseMessage(ex.Response)
	if err != nil {
		return nil, &ResponseError{Addr: addr, Response: ex.Response, Err: err}
	}
	return resp, nil
}

// ctxErr prefers the context error when cancellation caused the I/O
// failure.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (g *Gateway) log(ex Exchange) {
	fields := []zap.Field{
		zap.String("addr", ex.Addr),
		zap.String("packet_id", ex.PacketID),
		zap.Int("request_code", ex.RequestCode),
		zap.Duration("duration", ex.Duration),
	}
	if ex.Err != nil {
		g.logger.Warn("vif exchange failed", append(fields, zap.Error(ex.Err))...)
		return
	}
	g.logger.Debug("vif exchange",
		append(fields, zap.String("request", ex.Request), zap.String("response", ex.Response))...)
}
