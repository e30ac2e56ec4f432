package iso14230

import (
	"errors"
	"fmt"
)

var (
	ErrLinkInitFailed  = errors.New("iso14230 link init failed")
	ErrECUUnresponsive = errors.New("ecu not responding")
	ErrNotOpen         = errors.New("connection is not open")
	errStaleData       = errors.New("stale data on the line")
)

// Init stages reported by LinkInitError
const (
	StageOpen     = "open"
	StageConnect  = "connect"
	StageConfig   = "config"
	StageFilter   = "filter"
	StageFastInit = "fast init"
)

// LinkInitError is returned by Open when bringing up the link fails.
// The connection has been torn down when it is returned.
type LinkInitError struct {
	Stage string
	Err   error
}

func (e *LinkInitError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrLinkInitFailed, e.Stage, e.Err)
}

func (e *LinkInitError) Unwrap() error {
	return e.Err
}

func (e *LinkInitError) Is(target error) bool {
	return target == ErrLinkInitFailed
}
