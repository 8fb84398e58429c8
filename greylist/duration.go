package greylist

import (
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/peterbokunet/greyd/errors"
)

// Duration is a time.Duration that configuration can spell either as a
// Go duration string ("50m", "3h20m") or as a bare number of seconds.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func parseDuration(s string) (Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Duration(time.Duration(n) * time.Second), nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Er(err, "duration %q", s)
	}
	return Duration(v), nil
}

// SetValue implements cleanenv.Setter for env values.
func (d *Duration) SetValue(s string) error {
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for config files.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	v, err := parseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
