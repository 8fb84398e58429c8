// Package greylist implements the classic Harris greylisting algorithm:
// an unknown sender triplet is soft-denied for an initial black period,
// a legitimate retry inside the following grey window earns trust, and a
// trusted key stays trusted until it sits idle past the white timeout.
//
// Any storage failure yields Allow. Greylisting must never be the reason
// mail is permanently lost.
package greylist

import (
	"time"

	"github.com/peterbokunet/greyd/greylist/store"
	"github.com/peterbokunet/greyd/log"
)

// Action is the admission verdict kind.
type Action int

const (
	Allow Action = iota
	SoftDeny
)

func (a Action) String() string {
	if a == SoftDeny {
		return "soft-deny"
	}
	return "allow"
}

// Verdict is the engine's answer for one delivery attempt. Reason is set
// only for SoftDeny; callers map it onto their protocol's temporary
// failure response.
type Verdict struct {
	Action Action
	Reason string
}

const denyReason = "greylisting in effect, please come back later"

// Engine evaluates triplets against one store location. It keeps no
// state between evaluations; every call opens, locks, reads, writes and
// closes the store.
type Engine struct {
	// Dir is the configured store directory. Empty means the default
	// search order next to the binary.
	Dir string
	Log log.Logger
	// Now is the evaluation clock, wall time unless a test pins it.
	Now func() time.Time
}

func NewEngine(dir string, l log.Logger) *Engine {
	if l == nil {
		l = log.NewLogger()
	}
	return &Engine{Dir: dir, Log: l, Now: time.Now}
}

// Evaluate runs the state machine for one triplet under the given
// policy. Exactly one read and one write hit the store unless the store
// itself is unavailable, in which case the verdict is Allow (fail-open)
// and the condition is logged.
func (e *Engine) Evaluate(t Triplet, p Policy) Verdict {
	p = p.Normalize(e.Log)
	if p.Mode == ModeDisabled {
		return Verdict{Action: Allow}
	}

	st, err := store.Open(e.Dir)
	if err != nil {
		return e.failOpen("open", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			e.Log.Errorf("greylist: %v", err)
		}
	}()

	v, err := e.run(st, t, p)
	if err != nil {
		return e.failOpen("update", err)
	}
	return v
}

// failOpen is the single storage-error adapter: whatever went wrong in
// the store becomes Allow plus a diagnostic, and the state machine never
// sees it.
func (e *Engine) failOpen(op string, err error) Verdict {
	e.Log.Warnf("greylist: store %s failed, allowing mail: %v", op, err)
	return Verdict{Action: Allow}
}

func (e *Engine) run(st *store.Store, t Triplet, p Policy) (Verdict, error) {
	key := p.KeyFor(t)
	now := e.Now()

	var rec *Record
	if raw, ok := st.Get(key); ok {
		if parsed, err := ParseRecord(raw); err != nil {
			// Corrupt value: same as never seen.
			e.Log.Warnf("greylist: dropping malformed record for %q: %v", key, err)
		} else {
			rec = &parsed
		}
	}

	state := deriveState(rec, now, p)
	e.Log.Debugf("greylist: key=%q state=%s", key, state)

	switch state {
	case StateNew, StateExpired:
		var attempts int64
		if rec != nil {
			attempts = rec.Attempts
		}
		next := Record{LastSeen: now.Unix(), Attempts: attempts + 1}
		if err := st.Put(key, next.Encode()); err != nil {
			return Verdict{}, err
		}
		return e.deny(key, state, p), nil

	case StateBlack:
		// LastSeen stays put: the black window is anchored at the first
		// sighting, an impatient sender must not push it forward.
		rec.BlackCount++
		if err := st.Put(key, rec.Encode()); err != nil {
			return Verdict{}, err
		}
		return e.deny(key, state, p), nil

	case StateGrey:
		rec.LastSeen = now.Unix()
		rec.WhiteCount = 1
		if err := st.Put(key, rec.Encode()); err != nil {
			return Verdict{}, err
		}
		e.Log.Infof("greylist: key=%q promoted to white", key)
		return Verdict{Action: Allow}, nil

	default: // StateWhite
		rec.LastSeen = now.Unix()
		rec.WhiteCount++
		if err := st.Put(key, rec.Encode()); err != nil {
			return Verdict{}, err
		}
		return Verdict{Action: Allow}, nil
	}
}

func (e *Engine) deny(key string, state State, p Policy) Verdict {
	if p.Mode == ModeTestOnly {
		e.Log.Infof("greylist: testonly, would deny key=%q state=%s", key, state)
		return Verdict{Action: Allow}
	}
	return Verdict{Action: SoftDeny, Reason: denyReason}
}
