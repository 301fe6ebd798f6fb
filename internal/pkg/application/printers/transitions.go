package printers

import (
	"github.com/spoolsync/spool-mgmt/pkg/types"
)

type Effect int

const (
	// EffectSnapshotStartWeights records the weight of every mounted spool and the time the print started.
	EffectSnapshotStartWeights Effect = iota + 1
	// EffectCompletePrintJobs writes one print job per mounted spool and settles the spool weights.
	EffectCompletePrintJobs
)

func (e Effect) String() string {
	switch e {
	case EffectSnapshotStartWeights:
		return "snapshot-start-weights"
	case EffectCompletePrintJobs:
		return "complete-print-jobs"
	}
	return "none"
}

// Transition returns the side effects of a printer moving from prev to next.
// Every move into PRINTING starts a new snapshot, including a return from
// PAUSED or ERROR.
func Transition(prev, next types.PrinterStatus) []Effect {
	switch {
	case prev != types.PrinterPrinting && next == types.PrinterPrinting:
		return []Effect{EffectSnapshotStartWeights}
	case prev == types.PrinterPrinting && completed(next):
		return []Effect{EffectCompletePrintJobs}
	}
	return nil
}

func completed(status types.PrinterStatus) bool {
	switch status {
	case types.PrinterOperational, types.PrinterUnknown, types.PrinterOffline:
		return true
	}
	return false
}
