package greylist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterbokunet/greyd/greylist/store"
	"github.com/peterbokunet/greyd/log"
)

func testEngine(t *testing.T, at int64) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	e := NewEngine(dir, log.NewNopLogger())
	e.Now = func() time.Time { return time.Unix(at, 0) }
	return e, dir
}

func readRecord(t *testing.T, dir, key string) (Record, bool) {
	t.Helper()
	s, err := store.Open(dir)
	require.NoError(t, err)
	defer s.Close()

	raw, ok := s.Get(key)
	if !ok {
		return Record{}, false
	}
	rec, err := ParseRecord(raw)
	require.NoError(t, err)
	return rec, true
}

func writeRecord(t *testing.T, dir, key string, rec Record) {
	t.Helper()
	s, err := store.Open(dir)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Put(key, rec.Encode()))
}

var kTriplet = Triplet{RemoteAddr: "203.0.113.9", Sender: "a@example.org", Recipient: "b@example.net"}

func TestUnknownKeyIsDenied(t *testing.T) {
	e, dir := testEngine(t, 0)
	p := testPolicy()

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, SoftDeny, v.Action)
	assert.NotEmpty(t, v.Reason)

	rec, ok := readRecord(t, dir, p.KeyFor(kTriplet))
	require.True(t, ok)
	assert.Equal(t, Record{LastSeen: 0, Attempts: 1, BlackCount: 0, WhiteCount: 0}, rec)
}

func TestBlackRetryIsDenied(t *testing.T) {
	e, dir := testEngine(t, 2000)
	p := testPolicy()
	key := p.KeyFor(kTriplet)
	writeRecord(t, dir, key, Record{LastSeen: 0, Attempts: 1})

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, SoftDeny, v.Action)

	rec, ok := readRecord(t, dir, key)
	require.True(t, ok)
	assert.Equal(t, Record{LastSeen: 0, Attempts: 1, BlackCount: 1, WhiteCount: 0}, rec)
}

func TestGreyRetryPromotes(t *testing.T) {
	e, dir := testEngine(t, 3500)
	p := testPolicy()
	key := p.KeyFor(kTriplet)
	writeRecord(t, dir, key, Record{LastSeen: 0, Attempts: 1})

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, Allow, v.Action)

	rec, ok := readRecord(t, dir, key)
	require.True(t, ok)
	assert.Equal(t, Record{LastSeen: 3500, Attempts: 1, BlackCount: 0, WhiteCount: 1}, rec)
}

func TestWhiteDeliveryRefreshes(t *testing.T) {
	e, dir := testEngine(t, 3600)
	p := testPolicy()
	key := p.KeyFor(kTriplet)
	writeRecord(t, dir, key, Record{LastSeen: 3500, Attempts: 1, WhiteCount: 1})

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, Allow, v.Action)

	rec, ok := readRecord(t, dir, key)
	require.True(t, ok)
	assert.Equal(t, Record{LastSeen: 3600, Attempts: 1, BlackCount: 0, WhiteCount: 2}, rec)
}

func TestStaleWhiteIsReclaimed(t *testing.T) {
	at := int64(3600 + 36*24*3600 + 1)
	e, dir := testEngine(t, at)
	p := testPolicy()
	key := p.KeyFor(kTriplet)
	writeRecord(t, dir, key, Record{LastSeen: 3600, Attempts: 1, WhiteCount: 2})

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, SoftDeny, v.Action)

	rec, ok := readRecord(t, dir, key)
	require.True(t, ok)
	assert.Equal(t, Record{LastSeen: at, Attempts: 2, BlackCount: 0, WhiteCount: 0}, rec)
}

func TestExpiredGreyIsReclaimed(t *testing.T) {
	e, dir := testEngine(t, 15000)
	p := testPolicy()
	key := p.KeyFor(kTriplet)
	writeRecord(t, dir, key, Record{LastSeen: 0, Attempts: 3, BlackCount: 7})

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, SoftDeny, v.Action)

	rec, ok := readRecord(t, dir, key)
	require.True(t, ok)
	assert.Equal(t, Record{LastSeen: 15000, Attempts: 4, BlackCount: 0, WhiteCount: 0}, rec)
}

// Second call at t=2000 against a record created at t=0: the black window
// stays anchored at the first sighting.
func TestBlackWindowIsNotPushedForward(t *testing.T) {
	e, dir := testEngine(t, 0)
	p := testPolicy()
	key := p.KeyFor(kTriplet)

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, SoftDeny, v.Action)

	e.Now = func() time.Time { return time.Unix(2000, 0) }
	v = e.Evaluate(kTriplet, p)
	assert.Equal(t, SoftDeny, v.Action)

	rec, ok := readRecord(t, dir, key)
	require.True(t, ok)
	assert.Equal(t, Record{LastSeen: 0, Attempts: 1, BlackCount: 1, WhiteCount: 0}, rec)
}

func TestFullLifecycle(t *testing.T) {
	e, dir := testEngine(t, 0)
	p := testPolicy()
	key := p.KeyFor(kTriplet)

	// t=0: unknown
	assert.Equal(t, SoftDeny, e.Evaluate(kTriplet, p).Action)
	// t=3500: grey retry promotes
	e.Now = func() time.Time { return time.Unix(3500, 0) }
	assert.Equal(t, Allow, e.Evaluate(kTriplet, p).Action)
	// t=3600: trusted delivery
	e.Now = func() time.Time { return time.Unix(3600, 0) }
	assert.Equal(t, Allow, e.Evaluate(kTriplet, p).Action)

	rec, ok := readRecord(t, dir, key)
	require.True(t, ok)
	assert.Equal(t, Record{LastSeen: 3600, Attempts: 1, BlackCount: 0, WhiteCount: 2}, rec)
}

func TestTestOnlyModeAllowsButTracks(t *testing.T) {
	e, dir := testEngine(t, 0)
	p := testPolicy()
	p.Mode = ModeTestOnly
	key := p.KeyFor(kTriplet)

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, Allow, v.Action)
	assert.Empty(t, v.Reason)

	rec, ok := readRecord(t, dir, key)
	require.True(t, ok)
	assert.Equal(t, Record{LastSeen: 0, Attempts: 1, BlackCount: 0, WhiteCount: 0}, rec)

	// Black-window retry: still allowed, still tracked.
	e.Now = func() time.Time { return time.Unix(2000, 0) }
	v = e.Evaluate(kTriplet, p)
	assert.Equal(t, Allow, v.Action)

	rec, _ = readRecord(t, dir, key)
	assert.Equal(t, Record{LastSeen: 0, Attempts: 1, BlackCount: 1, WhiteCount: 0}, rec)
}

func TestDisabledModeSkipsStore(t *testing.T) {
	e, dir := testEngine(t, 0)
	p := testPolicy()
	p.Mode = ModeDisabled

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, Allow, v.Action)

	_, err := os.Stat(filepath.Join(dir, "greylist.db"))
	assert.True(t, os.IsNotExist(err))
}

// Mode spellings are case-insensitive everywhere, so a capitalized
// disabled mode must skip the store exactly like the lowercase one.
func TestDisabledModeIsCaseInsensitive(t *testing.T) {
	e, dir := testEngine(t, 0)
	p := testPolicy()
	p.Mode = "Disabled"

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, Allow, v.Action)
	assert.Empty(t, v.Reason)

	_, err := os.Stat(filepath.Join(dir, "greylist.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreFailureFailsOpen(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	parent := t.TempDir()
	dir := filepath.Join(parent, "ro")
	require.NoError(t, os.Mkdir(dir, 0o500))

	e := NewEngine(dir, log.NewNopLogger())
	e.Now = func() time.Time { return time.Unix(0, 0) }

	v := e.Evaluate(kTriplet, testPolicy())
	assert.Equal(t, Allow, v.Action)
}

func TestLockedStoreFailsOpen(t *testing.T) {
	e, dir := testEngine(t, 0)

	s, err := store.Open(dir)
	require.NoError(t, err)
	defer s.Close()

	v := e.Evaluate(kTriplet, testPolicy())
	assert.Equal(t, Allow, v.Action)
}

func TestMalformedRecordIsReclaimed(t *testing.T) {
	e, dir := testEngine(t, 500)
	p := testPolicy()
	key := p.KeyFor(kTriplet)

	s, err := store.Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(key, "not:a:record"))
	require.NoError(t, s.Close())

	v := e.Evaluate(kTriplet, p)
	assert.Equal(t, SoftDeny, v.Action)

	rec, ok := readRecord(t, dir, key)
	require.True(t, ok)
	assert.Equal(t, Record{LastSeen: 500, Attempts: 1, BlackCount: 0, WhiteCount: 0}, rec)
}
