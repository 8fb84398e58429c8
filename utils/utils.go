package utils

import (
	"github.com/peterbokunet/greyd/log"
)

type Closer interface {
	Close() error
}

// DeferCloseLog closes the resource and logs the error if any. For defer
// sites where the error cannot change the outcome anymore.
func DeferCloseLog(c Closer) {
	if err := c.Close(); err != nil {
		log.Errorf("close: %v", err)
	}
}
