package bridge

import (
	"errors"

	"github.com/google/uuid"
	goosc "github.com/hypebeast/go-osc/osc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/showctl/dicentis-osc-bridge/internal/dicentis"
	"github.com/showctl/dicentis-osc-bridge/internal/metrics"
	oscgw "github.com/showctl/dicentis-osc-bridge/internal/osc"
	"github.com/showctl/dicentis-osc-bridge/internal/seats"
)

// sessionRequester is the slice of the session client the router and poller
// need. Satisfied by *dicentis.Client.
type sessionRequester interface {
	Request(op string, params any) (*dicentis.Envelope, error)
}

// Router turns inbound OSC commands into session requests. Handlers execute
// on the OSC listener goroutine; the session exchange itself is submitted to
// the scheduler and awaited synchronously.
//
// Every failure is caught and logged here. Nothing a command does may kill
// the listener, and no negative acknowledgment goes back over OSC.
type Router struct {
	dir     *seats.Directory
	sched   *Scheduler
	session sessionRequester
	state   *DiscussionState
	m       *metrics.Metrics
	fatal   func(error)
}

// NewRouter wires the router. fatal is invoked when a command hits a
// transport failure, which is unrecoverable for the whole session.
func NewRouter(dir *seats.Directory, sched *Scheduler, session sessionRequester,
	state *DiscussionState, m *metrics.Metrics, fatal func(error)) *Router {
	return &Router{dir: dir, sched: sched, session: session, state: state, m: m, fatal: fatal}
}

// Register installs the fixed handler set on the gateway. Call before the
// gateway starts; there is no runtime (un)registration.
func (r *Router) Register(gw *oscgw.Gateway) {
	gw.Handle(AddrMicActivate, func(msg *goosc.Message) { r.command("activate", msg) })
	gw.Handle(AddrMicDeactivate, func(msg *goosc.Message) { r.command("deactivate", msg) })
	gw.Handle(AddrMicControl, func(msg *goosc.Message) { r.command("toggle", msg) })
	gw.Handle(AddrTest, func(msg *goosc.Message) {
		r.m.OSCMessages.WithLabelValues(AddrTest).Inc()
		log.Info().Str("module", "bridge.router").Str("address", msg.Address).
			Interface("args", msg.Arguments).Msg("test message received")
	})
}

func (r *Router) command(name string, msg *goosc.Message) {
	r.m.OSCMessages.WithLabelValues(msg.Address).Inc()

	// Short correlation id so handler-side and scheduler-side log lines
	// for one command can be matched up.
	logger := log.With().Str("module", "bridge.router").
		Str("cmd", uuid.NewString()[:8]).Str("command", name).Logger()

	line, ok := oscgw.StringArg(msg)
	if !ok || line == "" {
		logger.Error().Msg("no screen line argument")
		return
	}
	seat, ok := r.dir.ByScreenLine(line)
	if !ok {
		// Lookup miss: log and drop, nothing goes back over OSC.
		logger.Error().Str("screenLine", line).Msg("no seat for screen line")
		return
	}
	logger = logger.With().Str("screenLine", line).Str("seatid", seat.WireID()).Logger()
	r.m.Commands.WithLabelValues(name).Inc()

	_, err := r.sched.Submit(name, func() (any, error) {
		return r.execute(name, line, seat, logger)
	})
	if err != nil {
		logger.Error().Err(err).Msg("command failed")
		var te *dicentis.TransportError
		if errors.As(err, &te) && r.fatal != nil {
			r.fatal(err)
		}
	}
}

// execute runs on the scheduler goroutine. Toggle resolves the desired
// operation from the cached snapshot at execution time; that state can be up
// to one poll interval stale.
func (r *Router) execute(name, line string, seat seats.Seat, logger zerolog.Logger) (any, error) {
	op := dicentis.OpActivateMic
	switch name {
	case "deactivate":
		op = dicentis.OpDeactivateMic
	case "toggle":
		if r.state.MicState(line) == dicentis.MicOn {
			op = dicentis.OpDeactivateMic
		}
	}

	r.m.SessionRequests.WithLabelValues(op).Inc()
	env, err := r.session.Request(op, dicentis.MicParams{SeatID: seat.WireID()})
	if err != nil {
		r.m.SessionErrors.Inc()
		return nil, err
	}
	if env.IsError() {
		// Application-level refusal: abandoned, no retry.
		r.m.SessionErrors.Inc()
		logger.Error().Str("op", op).Str("message", env.ErrorMessage()).
			Msg("server refused microphone command")
		return env, nil
	}
	logger.Info().Str("op", op).Msg("microphone command accepted")
	return env, nil
}
