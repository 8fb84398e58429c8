// Package store persists the key -> record mapping of the greylisting
// engine in a single delimited text file, guarded by an exclusive
// advisory lock so that concurrent evaluations of one store serialize.
package store

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/peterbokunet/greyd/errors"
)

const (
	dbFile   = "greylist.db"
	lockFile = "greylist.lock"
)

var ErrNoUsableDir = errors.New("store: no usable directory")
var ErrLocked = errors.New("store: already locked by another process")

// Store is an open, locked greylist database. One Store covers exactly
// one evaluation: open, read, write, close. The lock is held from Open
// until Close.
type Store struct {
	dir  string
	lock *flock.Flock
	recs map[string]string
}

// Open resolves a store directory, takes the exclusive lock there and
// loads the key-value file. A single failed attempt is final: no
// retries, the caller fails open.
func Open(explicit string) (*Store, error) {
	dir, err := resolveDir(explicit)
	if err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Er(err, "store: lock %s", dir)
	}
	if !locked {
		return nil, ErrLocked
	}

	s := &Store{dir: dir, lock: lock}
	if err := s.load(); err != nil {
		// Release before reporting, the caller will not Close a nil store.
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

// Get returns the raw value for key. The second return is false if the
// key was never written.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.recs[key]
	return v, ok
}

// Put overwrites the value for key and rewrites the file. The rewrite
// goes through a temp file plus rename so a crash never leaves a
// truncated store behind.
func (s *Store) Put(key, value string) error {
	s.recs[key] = value
	return s.flush()
}

// Close releases the lock. Must run on every exit path out of an
// evaluation.
func (s *Store) Close() error {
	if err := s.lock.Unlock(); err != nil {
		return errors.Er(err, "store: unlock %s", s.dir)
	}
	return nil
}

// Dir returns the resolved store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Len returns the number of loaded records.
func (s *Store) Len() int {
	return len(s.recs)
}

func (s *Store) load() error {
	s.recs = make(map[string]string)

	f, err := os.Open(filepath.Join(s.dir, dbFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Er(err, "store: open db")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, "\t")
		if !ok || key == "" {
			// Corrupt line: treat as absent, it vanishes on the next flush.
			continue
		}
		s.recs[key] = value
	}
	if err := scanner.Err(); err != nil {
		return errors.Er(err, "store: read db")
	}
	return nil
}

func (s *Store) flush() error {
	tmp, err := os.CreateTemp(s.dir, dbFile+".*")
	if err != nil {
		return errors.Er(err, "store: create temp")
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for key, value := range s.recs {
		if _, err := w.WriteString(key + "\t" + value + "\n"); err != nil {
			tmp.Close()
			return errors.Er(err, "store: write db")
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return errors.Er(err, "store: write db")
	}
	if err := tmp.Close(); err != nil {
		return errors.Er(err, "store: close temp")
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, dbFile)); err != nil {
		return errors.Er(err, "store: rename db")
	}
	return nil
}
