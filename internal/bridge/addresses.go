package bridge

// OSC addresses the bridge listens on and publishes to.
const (
	AddrMicControl    = "/dicentis/mic/control"
	AddrMicActivate   = "/dicentis/mic/activate"
	AddrMicDeactivate = "/dicentis/mic/deactivate"
	AddrTest          = "/test/osc"

	// AddrMicOn carries the screen line of the first active microphone.
	// Single slot: simultaneous speakers are not multiplexed onto
	// distinct addresses.
	AddrMicOn = "/custom-variable/mic_on/value"

	seatAddrFormat = "/custom-variable/seat%d/value"
)
