// Package seats holds the per-session cache mapping conference seats to the
// identities the OSC surface and the wire protocol address them by.
package seats

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/showctl/dicentis-osc-bridge/internal/dicentis"
)

// Seat is one resolvable conference seat.
type Seat struct {
	Number        int    `json:"number"`
	Name          string `json:"seatName"`
	ScreenLine    string `json:"screenLine"`
	SeatID        string `json:"seatId"`
	ParticipantID string `json:"participantId,omitempty"`
}

// WireID is the identifier activate/deactivate requests address the seat by:
// the seated participant when one is known, else the seat name.
func (s Seat) WireID() string {
	if s.ParticipantID != "" {
		return s.ParticipantID
	}
	return s.Name
}

// Directory is the immutable seat cache built once per session. It is keyed
// two ways: by seat number for deterministic outbound OSC addressing, and by
// normalized screen line for inbound command lookup.
type Directory struct {
	byNumber map[int]Seat
	byLine   map[string]Seat
}

// Build constructs the directory from raw server records plus optional static
// overrides from configuration. Overrides are applied last and win.
//
// Records with an empty seat name, hidden records, and records whose name
// contains no digits are skipped. The seat number is the integer formed by
// the name's digit characters in order ("Seat 12" -> 12, "S1R2" -> 12). Two
// names yielding the same number collide; the later record wins.
func Build(records []dicentis.SeatRecord, overrides []Seat) *Directory {
	d := &Directory{
		byNumber: make(map[int]Seat),
		byLine:   make(map[string]Seat),
	}
	for _, rec := range records {
		if rec.SeatName == "" || rec.Hidden {
			continue
		}
		num, ok := seatNumber(rec.SeatName)
		if !ok {
			log.Debug().Str("module", "seats").Str("seatName", rec.SeatName).
				Msg("seat name has no digits, skipping")
			continue
		}
		d.put(Seat{
			Number:        num,
			Name:          rec.SeatName,
			ScreenLine:    rec.ScreenLine,
			SeatID:        rec.SeatID,
			ParticipantID: rec.ParticipantID,
		})
	}
	for _, s := range overrides {
		d.put(s)
	}
	return d
}

func (d *Directory) put(s Seat) {
	d.byNumber[s.Number] = s
	d.byLine[normalize(s.ScreenLine)] = s
}

// ByScreenLine resolves a seat from an inbound command's screen-line label.
// The query is trimmed and case-folded; an exact match is tried first, then a
// bidirectional substring fallback returning the first hit in map order. The
// fallback is non-deterministic when labels overlap.
func (d *Directory) ByScreenLine(line string) (Seat, bool) {
	q := normalize(line)
	if q == "" {
		return Seat{}, false
	}
	if s, ok := d.byLine[q]; ok {
		return s, true
	}
	for key, s := range d.byLine {
		if key == "" {
			continue
		}
		if strings.Contains(key, q) || strings.Contains(q, key) {
			log.Debug().Str("module", "seats").Str("query", line).
				Str("matched", s.ScreenLine).Msg("substring match")
			return s, true
		}
	}
	return Seat{}, false
}

// ByNumber returns the seat stored under a seat number.
func (d *Directory) ByNumber(n int) (Seat, bool) {
	s, ok := d.byNumber[n]
	return s, ok
}

// Numbers returns all seat numbers in ascending order.
func (d *Directory) Numbers() []int {
	nums := make([]int, 0, len(d.byNumber))
	for n := range d.byNumber {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// All returns the seats in seat-number order.
func (d *Directory) All() []Seat {
	out := make([]Seat, 0, len(d.byNumber))
	for _, n := range d.Numbers() {
		out = append(out, d.byNumber[n])
	}
	return out
}

// Len is the number of distinct seat numbers.
func (d *Directory) Len() int { return len(d.byNumber) }

func seatNumber(name string) (int, bool) {
	var digits strings.Builder
	for _, r := range name {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

func normalize(line string) string {
	return strings.ToUpper(strings.TrimSpace(line))
}
