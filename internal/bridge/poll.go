package bridge

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/showctl/dicentis-osc-bridge/internal/dicentis"
	"github.com/showctl/dicentis-osc-bridge/internal/metrics"
)

// publisher is the outbound slice of the OSC gateway. Satisfied by
// *osc.Gateway.
type publisher interface {
	Publish(address, value string) error
}

// Poller fetches the discussion list each tick and republishes mic state.
// Tick always runs on the scheduler goroutine, so it shares the session
// serialization with command-driven requests.
type Poller struct {
	session sessionRequester
	pub     publisher
	state   *DiscussionState
	m       *metrics.Metrics
	fatal   func(error)
}

// NewPoller wires the poll loop. fatal is invoked on transport failure,
// which ends the session; everything else degrades and the loop keeps going.
func NewPoller(session sessionRequester, pub publisher, state *DiscussionState,
	m *metrics.Metrics, fatal func(error)) *Poller {
	return &Poller{session: session, pub: pub, state: state, m: m, fatal: fatal}
}

// Tick performs one poll: request the discussion list, replace the cached
// snapshot wholesale, and publish the first active screen line, if any.
//
// The request has no read timeout; a silent server stalls the scheduler and
// everything queued behind it.
//
// An unparsable or error-tagged response degrades to an empty snapshot: no
// active mics, nothing published, previous published value not cleared.
func (p *Poller) Tick() {
	p.m.PollTicks.Inc()
	p.m.SessionRequests.WithLabelValues(dicentis.OpGetDiscussionList).Inc()

	env, err := p.session.Request(dicentis.OpGetDiscussionList, nil)
	if err != nil {
		p.m.SessionErrors.Inc()
		var te *dicentis.TransportError
		if errors.As(err, &te) {
			log.Error().Err(err).Str("module", "bridge.poll").Msg("session lost")
			if p.fatal != nil {
				p.fatal(err)
			}
			return
		}
		log.Error().Err(err).Str("module", "bridge.poll").Msg("discussion poll failed")
		p.state.Replace(nil)
		p.m.ActiveMics.Set(0)
		return
	}

	var entries []dicentis.DiscussionEntry
	if env.IsError() {
		p.m.SessionErrors.Inc()
	} else if list, derr := env.DiscussionList(); derr != nil {
		p.m.SessionErrors.Inc()
		log.Error().Err(derr).Str("module", "bridge.poll").Msg("unparsable discussion list")
	} else {
		entries = list
	}
	p.state.Replace(entries)

	var active []string
	for _, e := range entries {
		if e.MicrophoneState == dicentis.MicOn {
			active = append(active, e.ScreenLine)
		}
	}
	p.m.ActiveMics.Set(float64(len(active)))
	if len(active) == 0 {
		return
	}

	// Single-slot publish: only the first active mic, in snapshot order.
	if err := p.pub.Publish(AddrMicOn, active[0]); err != nil {
		log.Error().Err(err).Str("module", "bridge.poll").Msg("state publish failed")
		return
	}
	p.m.StatePublishes.Inc()
	log.Debug().Str("module", "bridge.poll").Str("screenLine", active[0]).
		Int("active", len(active)).Msg("published active mic")
}
