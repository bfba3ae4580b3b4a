package dicentis

import "encoding/json"

// Wire operations understood by the conference server. Each request yields
// exactly one response; the protocol carries no correlation identifiers.
const (
	OpLogin             = "login"
	OpGetSeats          = "getseats"
	OpGetDiscussionList = "GetDiscussionList"
	OpActivateMic       = "ActivateMicrophone"
	OpDeactivateMic     = "DeactivateMicrophone"
	OpError             = "error"
)

// Microphone states as reported in a discussion list.
const (
	MicOn  = "on"
	MicOff = "off"
)

// Envelope is the framing shared by every request and response:
// an operation tag plus an operation-specific parameters object.
type Envelope struct {
	Operation  string          `json:"operation"`
	Parameters json.RawMessage `json:"parameters"`
}

// IsError reports whether the server tagged this response as an
// application-level failure.
func (e *Envelope) IsError() bool {
	return e.Operation == OpError
}

// ErrorMessage extracts the human-readable message from an error-tagged
// response. Returns a generic placeholder when the parameters are unusable.
func (e *Envelope) ErrorMessage() string {
	var p struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Parameters, &p); err != nil || p.Message == "" {
		return "unknown server error"
	}
	return p.Message
}

// SeatRecord is a raw seat entry from a getseats response.
type SeatRecord struct {
	SeatName      string `json:"seatName"`
	ScreenLine    string `json:"screenLine"`
	SeatID        string `json:"seatId"`
	ParticipantID string `json:"seatedParticipantId"`
	Hidden        bool   `json:"hideSeat"`
}

// DiscussionEntry is one seat's microphone state within a discussion list.
type DiscussionEntry struct {
	ScreenLine      string `json:"screenLine"`
	MicrophoneState string `json:"microphoneState"`
}

// Seats decodes the seat list from a getseats response.
func (e *Envelope) Seats() ([]SeatRecord, error) {
	var p struct {
		Seats []SeatRecord `json:"seats"`
	}
	if err := json.Unmarshal(e.Parameters, &p); err != nil {
		return nil, &ProtocolError{Op: OpGetSeats, Err: err}
	}
	return p.Seats, nil
}

// DiscussionList decodes the entries from a GetDiscussionList response.
func (e *Envelope) DiscussionList() ([]DiscussionEntry, error) {
	var p struct {
		DiscussionList []DiscussionEntry `json:"discussionList"`
	}
	if err := json.Unmarshal(e.Parameters, &p); err != nil {
		return nil, &ProtocolError{Op: OpGetDiscussionList, Err: err}
	}
	return p.DiscussionList, nil
}

type loginParams struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// MicParams identifies the seat of an Activate/DeactivateMicrophone request.
type MicParams struct {
	SeatID string `json:"seatid"`
}
