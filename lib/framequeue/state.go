package framequeue

import (
	"fmt"
)

// FrameState is the lifecycle state of a FrameRecord. States only move
// forward; a retired record is reset to StateEmpty when it goes back to
// the pool.
type FrameState int

const (
	StateEmpty FrameState = iota
	StateFilled
	StateUploading
	StateReady
	StateDisplayed
	StateRetired
)

var stateNames = [...]string{
	StateEmpty:     "empty",
	StateFilled:    "filled",
	StateUploading: "uploading",
	StateReady:     "ready",
	StateDisplayed: "displayed",
	StateRetired:   "retired",
}

func (s FrameState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

func (s FrameState) canBecome(next FrameState) bool {
	switch s {
	case StateEmpty:
		return next == StateFilled
	case StateFilled:
		return next == StateUploading || next == StateRetired
	case StateUploading:
		return next == StateReady || next == StateRetired
	case StateReady:
		return next == StateDisplayed || next == StateRetired
	case StateDisplayed:
		return next == StateRetired
	default:
		return false
	}
}
