// Package bridge is the engine tying the conference session to the OSC
// surface: the single-owner scheduler for session I/O, the command router,
// the discussion poll loop, and the run/teardown orchestration.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/showctl/dicentis-osc-bridge/internal/config"
	"github.com/showctl/dicentis-osc-bridge/internal/dicentis"
	"github.com/showctl/dicentis-osc-bridge/internal/metrics"
	oscgw "github.com/showctl/dicentis-osc-bridge/internal/osc"
	"github.com/showctl/dicentis-osc-bridge/internal/seats"
)

// Bridge owns one session, one seat directory, and one OSC gateway. There is
// no reconnect: when the transport dies the bridge shuts down and the process
// supervisor decides what happens next.
type Bridge struct {
	cfg     *config.Config
	session *dicentis.Client
	gateway *oscgw.Gateway
	sched   *Scheduler
	state   *DiscussionState
	m       *metrics.Metrics

	fatal     chan error
	startedAt time.Time

	mu        sync.RWMutex
	dir       *seats.Directory
	connected bool
}

// New assembles a bridge from configuration. Nothing is dialed or bound yet.
func New(cfg *config.Config, m *metrics.Metrics) *Bridge {
	b := &Bridge{
		cfg:     cfg,
		session: dicentis.NewClient(cfg.ServerAddr),
		gateway: oscgw.NewGateway(cfg.LocalOSCPort, cfg.OSCTargetHost, cfg.OSCTargetPort, oscgw.ProbeGuard{}),
		state:   &DiscussionState{},
		m:       m,
		fatal:   make(chan error, 1),
	}
	poller := NewPoller(b.session, b.gateway, b.state, m, b.reportFatal)
	b.sched = NewScheduler(cfg.PollInterval, poller.Tick)
	return b
}

// Run drives the whole lifecycle and blocks until ctx is cancelled or the
// session transport fails. Setup-phase errors (dial, login) are returned;
// everything after setup is handled internally and ends in orderly teardown.
func (b *Bridge) Run(ctx context.Context) error {
	b.startedAt = time.Now()

	if err := b.session.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := b.session.Close(); err != nil {
			log.Warn().Err(err).Str("module", "bridge").Msg("session close")
		}
	}()

	if err := b.session.Login(b.cfg.Username, b.cfg.Password); err != nil {
		return err
	}
	b.setConnected(true)
	defer b.setConnected(false)

	dir, err := b.buildDirectory()
	if err != nil {
		return err
	}
	b.setDirectory(dir)

	router := NewRouter(dir, b.sched, b.session, b.state, b.m, b.reportFatal)
	router.Register(b.gateway)

	// The scheduler owns the session connection from here on; it must be
	// up before the listener so a handler can never submit into the void.
	b.sched.Start()

	b.announceSeats(dir)

	if err := b.gateway.Start(); err != nil {
		b.sched.Stop()
		return err
	}

	log.Info().Str("module", "bridge").Int("seats", dir.Len()).
		Dur("poll_interval", b.cfg.PollInterval).Msg("bridge running")

	select {
	case <-ctx.Done():
		log.Info().Str("module", "bridge").Msg("shutdown requested")
	case err := <-b.fatal:
		log.Error().Err(err).Str("module", "bridge").Msg("session failed, shutting down")
	}

	// Teardown mirrors startup: listener first, then scheduler. The
	// deferred Close drops the connection last.
	b.gateway.Stop()
	b.sched.Stop()
	return nil
}

// buildDirectory performs the one getseats exchange of the session. An
// error-tagged or unparsable response degrades to an empty directory; only
// transport failure aborts the run.
func (b *Bridge) buildDirectory() (*seats.Directory, error) {
	b.m.SessionRequests.WithLabelValues(dicentis.OpGetSeats).Inc()
	env, err := b.session.Request(dicentis.OpGetSeats, nil)
	if err != nil {
		var te *dicentis.TransportError
		if errors.As(err, &te) {
			return nil, err
		}
		b.m.SessionErrors.Inc()
		log.Error().Err(err).Str("module", "bridge").Msg("getseats failed, directory empty")
		return seats.Build(nil, b.overrides()), nil
	}

	var records []dicentis.SeatRecord
	if env.IsError() {
		b.m.SessionErrors.Inc()
	} else if list, derr := env.Seats(); derr != nil {
		b.m.SessionErrors.Inc()
		log.Error().Err(derr).Str("module", "bridge").Msg("unparsable seat list")
	} else {
		records = list
	}

	dir := seats.Build(records, b.overrides())
	log.Info().Str("module", "bridge").Int("seats", dir.Len()).Msg("seat directory built")
	return dir, nil
}

func (b *Bridge) overrides() []seats.Seat {
	out := make([]seats.Seat, 0, len(b.cfg.Seats))
	for _, o := range b.cfg.Seats {
		out = append(out, seats.Seat{
			Number:        o.Number,
			Name:          o.SeatName,
			ScreenLine:    o.ScreenLine,
			SeatID:        o.SeatID,
			ParticipantID: o.ParticipantID,
		})
	}
	return out
}

// announceSeats publishes each seat's screen line once so downstream OSC
// consumers can label their surfaces.
func (b *Bridge) announceSeats(dir *seats.Directory) {
	for _, seat := range dir.All() {
		addr := fmt.Sprintf(seatAddrFormat, seat.Number)
		if err := b.gateway.Publish(addr, seat.ScreenLine); err != nil {
			log.Error().Err(err).Str("module", "bridge").Str("address", addr).
				Msg("seat announce failed")
			continue
		}
		log.Info().Str("module", "bridge").Str("address", addr).
			Str("screenLine", seat.ScreenLine).Msg("seat announced")
	}
}

// reportFatal hands a transport failure to the run loop. Only the first one
// matters.
func (b *Bridge) reportFatal(err error) {
	select {
	case b.fatal <- err:
	default:
	}
}

func (b *Bridge) setConnected(v bool) {
	b.mu.Lock()
	b.connected = v
	b.mu.Unlock()
}

func (b *Bridge) setDirectory(dir *seats.Directory) {
	b.mu.Lock()
	b.dir = dir
	b.mu.Unlock()
}

// Status is the diagnostics snapshot served by the HTTP API.
type Status struct {
	Connected    bool     `json:"connected"`
	Uptime       string   `json:"uptime"`
	Seats        int      `json:"seats"`
	ActiveMics   []string `json:"activeMics"`
	PollInterval string   `json:"pollInterval"`
}

// Status reports the bridge's current state. Safe from any goroutine.
func (b *Bridge) Status() Status {
	b.mu.RLock()
	connected, dir := b.connected, b.dir
	b.mu.RUnlock()

	st := Status{
		Connected:    connected,
		Uptime:       time.Since(b.startedAt).Round(time.Second).String(),
		ActiveMics:   b.state.ActiveLines(),
		PollInterval: b.cfg.PollInterval.String(),
	}
	if dir != nil {
		st.Seats = dir.Len()
	}
	return st
}

// Seats lists the directory for the diagnostics API; empty before setup.
func (b *Bridge) Seats() []seats.Seat {
	b.mu.RLock()
	dir := b.dir
	b.mu.RUnlock()
	if dir == nil {
		return nil
	}
	return dir.All()
}
