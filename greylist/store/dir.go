package store

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// resolveDir picks the store directory: the explicitly configured one
// first, then fixed fallbacks next to the installed binary. First
// existing writable directory wins. The explicit directory is created if
// missing; fallbacks are not.
func resolveDir(explicit string) (string, error) {
	var candidates []string
	if explicit != "" {
		if err := os.MkdirAll(explicit, 0o750); err == nil {
			candidates = append(candidates, explicit)
		}
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(exeDir, "var", "greylist"),
			filepath.Join(exeDir, "config", "greylist"),
		)
	}

	for _, dir := range candidates {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if unix.Access(dir, unix.W_OK) != nil {
			continue
		}
		return dir, nil
	}
	return "", ErrNoUsableDir
}
