package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showctl/dicentis-osc-bridge/internal/dicentis"
)

func TestTickPublishesFirstActiveMic(t *testing.T) {
	session := &fakeSession{
		respond: func(op string, params any) (*dicentis.Envelope, error) {
			return discussionEnvelope([]dicentis.DiscussionEntry{
				{ScreenLine: "A", MicrophoneState: dicentis.MicOn},
				{ScreenLine: "B", MicrophoneState: dicentis.MicOn},
				{ScreenLine: "C", MicrophoneState: dicentis.MicOff},
			}), nil
		},
	}
	pub := &fakePublisher{}
	state := &DiscussionState{}
	p := NewPoller(session, pub, state, newTestMetrics(), nil)

	p.Tick()

	sent := pub.published()
	require.Len(t, sent, 1, "only the first active mic is published")
	assert.Equal(t, AddrMicOn, sent[0].Address)
	assert.Equal(t, "A", sent[0].Value)

	assert.Equal(t, dicentis.MicOn, state.MicState("B"))
	assert.Equal(t, dicentis.MicOff, state.MicState("C"))
	assert.Equal(t, dicentis.MicOff, state.MicState("UNKNOWN"))
}

func TestTickEmptyActiveSetPublishesNothing(t *testing.T) {
	session := &fakeSession{
		respond: func(op string, params any) (*dicentis.Envelope, error) {
			return discussionEnvelope([]dicentis.DiscussionEntry{
				{ScreenLine: "A", MicrophoneState: dicentis.MicOff},
			}), nil
		},
	}
	pub := &fakePublisher{}
	p := NewPoller(session, pub, &DiscussionState{}, newTestMetrics(), nil)

	p.Tick()

	assert.Empty(t, pub.published())
}

func TestTickReplacesSnapshotWholesale(t *testing.T) {
	entries := []dicentis.DiscussionEntry{
		{ScreenLine: "A", MicrophoneState: dicentis.MicOn},
	}
	session := &fakeSession{
		respond: func(op string, params any) (*dicentis.Envelope, error) {
			return discussionEnvelope(entries), nil
		},
	}
	pub := &fakePublisher{}
	state := &DiscussionState{}
	p := NewPoller(session, pub, state, newTestMetrics(), nil)

	p.Tick()
	require.Equal(t, dicentis.MicOn, state.MicState("A"))

	entries = []dicentis.DiscussionEntry{
		{ScreenLine: "B", MicrophoneState: dicentis.MicOn},
	}
	p.Tick()

	assert.Equal(t, dicentis.MicOff, state.MicState("A"), "old entries must not linger")
	assert.Equal(t, dicentis.MicOn, state.MicState("B"))
}

func TestTickErrorResponseDegradesToEmptySnapshot(t *testing.T) {
	session := &fakeSession{
		respond: func(op string, params any) (*dicentis.Envelope, error) {
			return errorEnvelope("no active meeting"), nil
		},
	}
	pub := &fakePublisher{}
	state := &DiscussionState{}
	state.Replace([]dicentis.DiscussionEntry{
		{ScreenLine: "A", MicrophoneState: dicentis.MicOn},
	})
	p := NewPoller(session, pub, state, newTestMetrics(), nil)

	p.Tick()

	assert.Empty(t, pub.published())
	assert.Empty(t, state.Snapshot())
}

func TestTickUnparsableListDegrades(t *testing.T) {
	session := &fakeSession{
		respond: func(op string, params any) (*dicentis.Envelope, error) {
			return &dicentis.Envelope{
				Operation:  dicentis.OpGetDiscussionList,
				Parameters: json.RawMessage(`{"discussionList": "not a list"}`),
			}, nil
		},
	}
	pub := &fakePublisher{}
	state := &DiscussionState{}
	p := NewPoller(session, pub, state, newTestMetrics(), nil)

	p.Tick()

	assert.Empty(t, pub.published())
	assert.Empty(t, state.Snapshot())
}

func TestTickTransportErrorReportsFatal(t *testing.T) {
	session := &fakeSession{
		respond: func(op string, params any) (*dicentis.Envelope, error) {
			return nil, &dicentis.TransportError{Op: op, Err: assert.AnError}
		},
	}
	var fatal error
	p := NewPoller(session, &fakePublisher{}, &DiscussionState{}, newTestMetrics(),
		func(err error) { fatal = err })

	p.Tick()

	require.Error(t, fatal)
}
