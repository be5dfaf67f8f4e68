package nabaztag

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultHost    = "localhost"
	DefaultPort    = 1234
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize is the most the device reply is read for.
	MaxResponseSize = 1024
)

// Dialer opens connections to the device. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// closeWriter is the half-close the device needs to see end of input.
// *net.TCPConn and *net.UnixConn implement it; dialers wrapping a conn must
// forward it.
type closeWriter interface {
	CloseWrite() error
}

var errNoHalfClose = errors.New("connection does not support CloseWrite")

// Client sends command batches to a nabd daemon over TCP.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  Dialer
	logger  *logrus.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithDialer replaces the default net.Dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithTimeout bounds the whole exchange once connected, and the connect itself.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New builds a Client for host:port.
func New(host string, port int, logger *logrus.Logger, opts ...Option) *Client {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	if logger == nil {
		logger = logrus.New()
	}
	c := &Client{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		timeout: DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = &net.Dialer{Timeout: c.timeout}
	}
	return c
}

// Addr returns the host:port target.
func (c *Client) Addr() string {
	return c.addr
}

// Send writes the encoded batch, half-closes the connection and reads one
// reply chunk of at most MaxResponseSize bytes. The connection is closed on
// every path. Failures are *DispatchError.
func (c *Client) Send(ctx context.Context, batch Batch) ([]byte, error) {
	payload, err := batch.Encode()
	if err != nil {
		return nil, &DispatchError{Op: OpEncode, Addr: c.addr, Err: err}
	}

	log := c.logger.WithField("addr", c.addr)
	log.Info("Connecting to nabaztag")

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, &DispatchError{Op: OpConnect, Addr: c.addr, Err: err}
	}
	defer conn.Close()
	log.Debug("Connection established")

	if c.timeout > 0 {
		deadline := time.Now().Add(c.timeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, &DispatchError{Op: OpDeadline, Addr: c.addr, Err: err}
		}
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, &DispatchError{Op: OpWrite, Addr: c.addr, Err: err}
	}
	log.WithField("payload", string(payload)).Info("Sent commands")

	cw, ok := conn.(closeWriter)
	if !ok {
		return nil, &DispatchError{Op: OpShutdown, Addr: c.addr, Err: errNoHalfClose}
	}
	if err := cw.CloseWrite(); err != nil {
		return nil, &DispatchError{Op: OpShutdown, Addr: c.addr, Err: err}
	}

	buf := make([]byte, MaxResponseSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &DispatchError{Op: OpRead, Addr: c.addr, Err: err}
	}
	resp := buf[:n]
	log.WithField("response", string(resp)).Info("Received response")
	return resp, nil
}
