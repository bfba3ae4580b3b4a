package bridge

import (
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/showctl/dicentis-osc-bridge/internal/dicentis"
	"github.com/showctl/dicentis-osc-bridge/internal/metrics"
	"github.com/showctl/dicentis-osc-bridge/internal/seats"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

type sentRequest struct {
	Op     string
	Params any
}

// fakeSession records every exchange and answers from a scripted respond
// function. It also tracks overlapping calls so tests can assert that at
// most one request is outstanding at a time.
type fakeSession struct {
	mu       sync.Mutex
	sent     []sentRequest
	inFlight int
	overlap  bool

	respond func(op string, params any) (*dicentis.Envelope, error)
}

func (f *fakeSession) Request(op string, params any) (*dicentis.Envelope, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > 1 {
		f.overlap = true
	}
	f.sent = append(f.sent, sentRequest{Op: op, Params: params})
	respond := f.respond
	f.mu.Unlock()

	var env *dicentis.Envelope
	var err error
	if respond != nil {
		env, err = respond(op, params)
	} else {
		env = okEnvelope(op)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return env, err
}

func (f *fakeSession) transcript() []sentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentRequest, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	Address string
	Value   string
}

func (f *fakePublisher) Publish(address, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{Address: address, Value: value})
	return nil
}

func (f *fakePublisher) published() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func okEnvelope(op string) *dicentis.Envelope {
	return &dicentis.Envelope{Operation: op, Parameters: json.RawMessage(`{}`)}
}

func errorEnvelope(message string) *dicentis.Envelope {
	params, _ := json.Marshal(map[string]string{"message": message})
	return &dicentis.Envelope{Operation: dicentis.OpError, Parameters: params}
}

func discussionEnvelope(entries []dicentis.DiscussionEntry) *dicentis.Envelope {
	params, _ := json.Marshal(map[string]any{"discussionList": entries})
	return &dicentis.Envelope{Operation: dicentis.OpGetDiscussionList, Parameters: params}
}

func seatsDirectoryForTest() *seats.Directory {
	return seats.Build([]dicentis.SeatRecord{
		{SeatName: "Seat 3", ScreenLine: "MALTA"},
	}, nil)
}
