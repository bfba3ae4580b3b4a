package dicentis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPort is the conference server's API port.
	DefaultPort = 31416

	apiPath     = "/Dicentis/API"
	subprotocol = "DICENTIS_1_0"

	handshakeTimeout = 10 * time.Second
)

// Client owns the single WebSocket connection to the conference server.
//
// The connection is not multiplexed: responses are matched to requests purely
// by send/receive order, so at most one request may be in flight. The client
// does not enforce that itself; callers must route every exchange through a
// single serialization point (the bridge scheduler).
type Client struct {
	addr string
	conn *websocket.Conn
}

// NewClient prepares a client for the given server address. The address may
// be a bare host, in which case the default API port is appended.
func NewClient(addr string) *Client {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(DefaultPort))
	}
	return &Client{addr: addr}
}

// Connect dials the server over TLS.
//
// The server presents a self-signed certificate, so chain and hostname
// verification are disabled. Anyone on the path can impersonate the server.
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "wss", Host: c.addr, Path: apiPath}

	dialer := websocket.Dialer{
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: true},
		Subprotocols:     []string{subprotocol},
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return &TransportError{Op: "connect", Err: err}
	}
	c.conn = conn

	log.Info().Str("module", "dicentis").Str("url", u.String()).Msg("session connected")
	return nil
}

// Login authenticates the session. It must be the first exchange after
// Connect.
func (c *Client) Login(user, password string) error {
	env, err := c.Request(OpLogin, loginParams{User: user, Password: password})
	if err != nil {
		return err
	}
	if env.IsError() {
		return &AuthError{Message: env.ErrorMessage()}
	}
	log.Info().Str("module", "dicentis").Str("user", user).Msg("login accepted")
	return nil
}

// Request sends one operation and waits for the single response the server
// owes it. There is no read timeout; an unresponsive server blocks forever.
//
// An error-tagged response is not an error return: the envelope comes back
// as-is and callers inspect its operation tag.
func (c *Client) Request(op string, params any) (*Envelope, error) {
	if params == nil {
		params = struct{}{}
	}
	req, err := json.Marshal(Envelope{Operation: op, Parameters: mustRaw(params)})
	if err != nil {
		return nil, &ProtocolError{Op: op, Err: err}
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, req); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ProtocolError{Op: op, Err: err}
	}
	if env.IsError() {
		log.Warn().Str("module", "dicentis").Str("op", op).
			Str("message", env.ErrorMessage()).Msg("server reported error")
	}
	return &env, nil
}

// Close tears the connection down. Safe to call before Connect.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
