package greylist

import (
	"strings"
	"time"

	"github.com/peterbokunet/greyd/log"
)

// Mode selects how verdicts are enforced.
type Mode string

const (
	// ModeActive applies soft denials.
	ModeActive Mode = "active"
	// ModeTestOnly tracks every attempt but never denies.
	ModeTestOnly Mode = "testonly"
	// ModeDisabled skips evaluation entirely, the store is not touched.
	ModeDisabled Mode = "disabled"
)

// Harris greylisting defaults: deny for 50 minutes, accept a retry within
// the following 3h20m, then trust the key for 36 days of idle time.
const (
	DefaultBlackTimeout = Duration(3000 * time.Second)
	DefaultGreyTimeout  = Duration(12000 * time.Second)
	DefaultWhiteTimeout = Duration(3110400 * time.Second)
)

// Policy is one fully-resolved configuration for a single evaluation.
// Callers merge whatever configuration layers they have before handing
// it over; the engine never consults anything else.
type Policy struct {
	KeyRemote    bool     `yaml:"key_remote" env:"GREY_KEY_REMOTE" env-default:"true"`
	KeySender    bool     `yaml:"key_sender" env:"GREY_KEY_SENDER"`
	KeyRecipient bool     `yaml:"key_recipient" env:"GREY_KEY_RECIPIENT"`
	BlackTimeout Duration `yaml:"black_timeout" env:"GREY_BLACK_TIMEOUT" env-default:"50m"`
	GreyTimeout  Duration `yaml:"grey_timeout" env:"GREY_GREY_TIMEOUT" env-default:"3h20m"`
	WhiteTimeout Duration `yaml:"white_timeout" env:"GREY_WHITE_TIMEOUT" env-default:"864h"`
	Mode         Mode     `yaml:"mode" env:"GREY_MODE" env-default:"active"`
}

func DefaultPolicy() Policy {
	return Policy{
		KeyRemote:    true,
		BlackTimeout: DefaultBlackTimeout,
		GreyTimeout:  DefaultGreyTimeout,
		WhiteTimeout: DefaultWhiteTimeout,
		Mode:         ModeActive,
	}
}

// Normalize repairs invalid policy values, logging each repair. A broken
// configuration must degrade to defaults, never stop the engine from
// running.
func (p Policy) Normalize(l log.Logger) Policy {
	if !p.KeyRemote && !p.KeySender && !p.KeyRecipient {
		l.Warnf("greylist: no key fields enabled, falling back to remote address")
		p.KeyRemote = true
	}
	if p.BlackTimeout <= 0 {
		l.Warnf("greylist: invalid black_timeout %v, using default %v", p.BlackTimeout, DefaultBlackTimeout)
		p.BlackTimeout = DefaultBlackTimeout
	}
	if p.GreyTimeout <= 0 {
		l.Warnf("greylist: invalid grey_timeout %v, using default %v", p.GreyTimeout, DefaultGreyTimeout)
		p.GreyTimeout = DefaultGreyTimeout
	}
	if p.WhiteTimeout <= 0 {
		l.Warnf("greylist: invalid white_timeout %v, using default %v", p.WhiteTimeout, DefaultWhiteTimeout)
		p.WhiteTimeout = DefaultWhiteTimeout
	}
	switch Mode(strings.ToLower(string(p.Mode))) {
	case ModeActive, ModeTestOnly, ModeDisabled:
		p.Mode = Mode(strings.ToLower(string(p.Mode)))
	default:
		l.Warnf("greylist: unknown mode %q, using %q", p.Mode, ModeActive)
		p.Mode = ModeActive
	}
	return p
}

// Triplet identifies one delivery attempt.
type Triplet struct {
	RemoteAddr string
	Sender     string
	Recipient  string
}

// KeyFor builds the tracking key from the enabled triplet fields.
// Field order is fixed; a disabled or empty field is omitted outright,
// never replaced by a placeholder.
func (p Policy) KeyFor(t Triplet) string {
	var b strings.Builder
	if p.KeyRemote {
		b.WriteString(t.RemoteAddr)
	}
	if p.KeySender {
		b.WriteString(t.Sender)
	}
	if p.KeyRecipient {
		b.WriteString(t.Recipient)
	}
	return b.String()
}
