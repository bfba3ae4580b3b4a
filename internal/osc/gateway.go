// Package osc is the bridge's OSC edge: a UDP listener dispatching inbound
// control messages to fixed handlers, and a best-effort outbound publisher.
package osc

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/rs/zerolog/log"
)

const (
	readTimeout = 1 * time.Second
	joinTimeout = 5 * time.Second
)

// HandlerFunc consumes one inbound OSC message.
type HandlerFunc func(msg *osc.Message)

// Gateway binds the local OSC port, runs the blocking receive loop on its own
// goroutine, and sends outbound messages to the configured target.
//
// The handler set is fixed before Start; there is no registration at runtime.
// Addresses without a handler fall through to a diagnostic log line.
type Gateway struct {
	listenAddr string
	client     *osc.Client
	handlers   map[string]HandlerFunc
	guard      PortGuard

	server *osc.Server
	conn   net.PacketConn
	stop   chan struct{}
	done   chan struct{}
}

// NewGateway prepares a gateway listening on listenPort (all interfaces) and
// publishing to targetHost:targetPort. A nil guard skips the port preflight.
func NewGateway(listenPort int, targetHost string, targetPort int, guard PortGuard) *Gateway {
	return &Gateway{
		listenAddr: fmt.Sprintf("0.0.0.0:%d", listenPort),
		client:     osc.NewClient(targetHost, targetPort),
		handlers:   make(map[string]HandlerFunc),
		guard:      guard,
		server:     &osc.Server{ReadTimeout: readTimeout},
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Handle registers the handler for an exact address. Call before Start only.
func (g *Gateway) Handle(address string, h HandlerFunc) {
	g.handlers[address] = h
}

// Start verifies the listen port, binds it, and spawns the receive loop.
func (g *Gateway) Start() error {
	if g.guard != nil {
		if err := g.guard.EnsureFree(g.listenAddr); err != nil {
			return fmt.Errorf("osc: listen port preflight: %w", err)
		}
	}
	conn, err := net.ListenPacket("udp", g.listenAddr)
	if err != nil {
		return fmt.Errorf("osc: bind %s: %w", g.listenAddr, err)
	}
	g.conn = conn

	log.Info().Str("module", "osc").Str("addr", conn.LocalAddr().String()).
		Int("handlers", len(g.handlers)).Msg("listener started")

	go g.receiveLoop()
	return nil
}

// Stop signals the receive loop and waits for it with a bounded join. A loop
// that fails to exit within the bound is logged and abandoned, not fatal.
func (g *Gateway) Stop() {
	close(g.stop)
	select {
	case <-g.done:
	case <-time.After(joinTimeout):
		log.Warn().Str("module", "osc").Msg("listener did not stop within bound")
	}
	if g.conn != nil {
		_ = g.conn.Close()
	}
}

// Addr is the bound listen address, valid after Start. Useful when the
// configured port is 0.
func (g *Gateway) Addr() net.Addr {
	return g.conn.LocalAddr()
}

// Publish sends one OSC message with a single string argument to the target.
// Best-effort UDP: failures are surfaced to the caller and never retried.
func (g *Gateway) Publish(address, value string) error {
	msg := osc.NewMessage(address)
	msg.Append(value)
	if err := g.client.Send(msg); err != nil {
		return fmt.Errorf("osc: publish %s: %w", address, err)
	}
	return nil
}

// receiveLoop accepts one packet per iteration, checking the stop signal
// between reads. The read timeout bounds how long a stop can go unnoticed.
func (g *Gateway) receiveLoop() {
	defer close(g.done)

	for {
		select {
		case <-g.stop:
			log.Info().Str("module", "osc").Msg("listener stopping")
			return
		default:
		}

		packet, err := g.server.ReceivePacket(g.conn)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			select {
			case <-g.stop:
				return
			default:
				log.Error().Err(err).Str("module", "osc").Msg("receive error")
				continue
			}
		}
		if packet != nil {
			g.dispatch(packet)
		}
	}
}

// dispatch routes a packet to its handler. Bundles are flattened; there is no
// timetag scheduling.
func (g *Gateway) dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		if h, ok := g.handlers[p.Address]; ok {
			h(p)
			return
		}
		log.Info().Str("module", "osc").Str("address", p.Address).
			Interface("args", p.Arguments).Msg("unhandled OSC message")
	case *osc.Bundle:
		for _, m := range p.Messages {
			g.dispatch(m)
		}
		for _, b := range p.Bundles {
			g.dispatch(b)
		}
	}
}

// StringArg extracts the single string argument commands carry.
func StringArg(msg *osc.Message) (string, bool) {
	for _, a := range msg.Arguments {
		if s, ok := a.(string); ok {
			return s, true
		}
	}
	return "", false
}
