package seats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showctl/dicentis-osc-bridge/internal/dicentis"
)

func TestBuildSeatNumbers(t *testing.T) {
	records := []dicentis.SeatRecord{
		{SeatName: "Seat 1", ScreenLine: "CHAIR"},
		{SeatName: "Seat 12", ScreenLine: "MALTA"},
		{SeatName: "S3R4", ScreenLine: "SPLIT DIGITS"},
		{SeatName: "Podium", ScreenLine: "NO DIGITS"},
		{SeatName: "", ScreenLine: "UNNAMED"},
		{SeatName: "Seat 7", ScreenLine: "GHOST", Hidden: true},
	}
	d := Build(records, nil)

	require.Equal(t, 3, d.Len())

	s, ok := d.ByNumber(1)
	require.True(t, ok)
	assert.Equal(t, "CHAIR", s.ScreenLine)

	s, ok = d.ByNumber(12)
	require.True(t, ok)
	assert.Equal(t, "MALTA", s.ScreenLine)
	assert.Equal(t, "Seat 12", s.Name)

	// "S3R4" concatenates its digits in order.
	s, ok = d.ByNumber(34)
	require.True(t, ok)
	assert.Equal(t, "SPLIT DIGITS", s.ScreenLine)

	_, ok = d.ByNumber(7)
	assert.False(t, ok, "hidden seats must be excluded")

	assert.Equal(t, []int{1, 12, 34}, d.Numbers())
}

func TestBuildNumberCollisionLastWins(t *testing.T) {
	records := []dicentis.SeatRecord{
		{SeatName: "Seat 12", ScreenLine: "FIRST"},
		{SeatName: "S1R2", ScreenLine: "SECOND"},
	}
	d := Build(records, nil)

	s, ok := d.ByNumber(12)
	require.True(t, ok)
	assert.Equal(t, "SECOND", s.ScreenLine)
}

func TestByScreenLineExact(t *testing.T) {
	d := Build([]dicentis.SeatRecord{
		{SeatName: "Seat 3", ScreenLine: "MALTA"},
	}, nil)

	for _, query := range []string{"MALTA", "malta", " Malta ", "malta "} {
		s, ok := d.ByScreenLine(query)
		require.True(t, ok, "query %q", query)
		assert.Equal(t, "MALTA", s.ScreenLine)
		assert.Equal(t, 3, s.Number)
	}
}

func TestByScreenLineSubstringFallback(t *testing.T) {
	d := Build([]dicentis.SeatRecord{
		{SeatName: "Seat 4", ScreenLine: "DELEGATE NORTH"},
	}, nil)

	// Query contained in the stored label.
	s, ok := d.ByScreenLine("north")
	require.True(t, ok)
	assert.Equal(t, "DELEGATE NORTH", s.ScreenLine)

	// Stored label contained in the query.
	s, ok = d.ByScreenLine("delegate north wing")
	require.True(t, ok)
	assert.Equal(t, "DELEGATE NORTH", s.ScreenLine)

	_, ok = d.ByScreenLine("south")
	assert.False(t, ok)

	_, ok = d.ByScreenLine("   ")
	assert.False(t, ok)
}

func TestWireID(t *testing.T) {
	withParticipant := Seat{Name: "Seat 5", ParticipantID: "participant-42"}
	assert.Equal(t, "participant-42", withParticipant.WireID())

	withoutParticipant := Seat{Name: "Seat 5"}
	assert.Equal(t, "Seat 5", withoutParticipant.WireID())
}

func TestOverridesWin(t *testing.T) {
	records := []dicentis.SeatRecord{
		{SeatName: "Seat 2", ScreenLine: "SERVER LABEL"},
	}
	overrides := []Seat{
		{Number: 2, Name: "Seat 2", ScreenLine: "HOUSE LABEL"},
		{Number: 9, Name: "Seat 9", ScreenLine: "EXTRA"},
	}
	d := Build(records, overrides)

	require.Equal(t, 2, d.Len())
	s, ok := d.ByNumber(2)
	require.True(t, ok)
	assert.Equal(t, "HOUSE LABEL", s.ScreenLine)

	_, ok = d.ByScreenLine("extra")
	assert.True(t, ok)
}
