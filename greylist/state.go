package greylist

import "time"

// State is the lifecycle position of a record at one instant. It is
// derived, never stored.
type State int

const (
	// StateNew - the key has never been seen.
	StateNew State = iota
	// StateBlack - within the initial denial window.
	StateBlack
	// StateGrey - past the black window, a retry now earns trust.
	StateGrey
	// StateWhite - trusted, deliveries allowed.
	StateWhite
	// StateExpired - idle past its applicable timeout, reclaimed as new.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateBlack:
		return "black"
	case StateGrey:
		return "grey"
	case StateWhite:
		return "white"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// deriveState computes the state once per evaluation. All comparisons are
// strict: an age exactly equal to a timeout boundary counts as expired,
// not as still inside the window.
func deriveState(rec *Record, now time.Time, p Policy) State {
	if rec == nil {
		return StateNew
	}
	age := Duration(now.Sub(time.Unix(rec.LastSeen, 0)))
	if rec.WhiteCount == 0 {
		if age < p.BlackTimeout {
			return StateBlack
		}
		if age < p.BlackTimeout+p.GreyTimeout {
			return StateGrey
		}
		return StateExpired
	}
	if age < p.WhiteTimeout {
		return StateWhite
	}
	return StateExpired
}
