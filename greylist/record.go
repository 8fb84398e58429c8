package greylist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/peterbokunet/greyd/errors"
)

// Record is the tracking state for one key. WhiteCount == 0 means the key
// has never been promoted; there is no separate state tag on disk, state
// is derived from WhiteCount and the age of LastSeen.
type Record struct {
	LastSeen   int64 // unix seconds of the last update
	Attempts   int64 // times the key entered the new/black lifecycle
	BlackCount int64 // denials issued since the last reset
	WhiteCount int64 // deliveries allowed while trusted
}

// Encode renders the on-disk value: last_seen:attempts:black:white.
func (r Record) Encode() string {
	return fmt.Sprintf("%d:%d:%d:%d", r.LastSeen, r.Attempts, r.BlackCount, r.WhiteCount)
}

// ParseRecord parses an on-disk value. Callers treat a parse error the
// same as an absent record, a single corrupt entry must not poison the
// store.
func ParseRecord(s string) (Record, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 4 {
		return Record{}, errors.Errorf("record %q: want 4 fields, got %d", s, len(fields))
	}
	var vals [4]int64
	for i, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return Record{}, errors.Er(err, "record %q: field %d", s, i)
		}
		vals[i] = n
	}
	return Record{
		LastSeen:   vals[0],
		Attempts:   vals[1],
		BlackCount: vals[2],
		WhiteCount: vals[3],
	}, nil
}
