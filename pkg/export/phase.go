package export

import (
	"errors"
	"fmt"
)

// Phase is a step of an export run. Phases are entered in declaration order; a run
// ends in Succeeded or Failed.
type Phase int

const (
	PhaseValidatingTargets Phase = iota
	PhaseClearingStaging
	PhaseAwaitingPriorCompilation
	PhaseDiscoveringResources
	PhaseCompilingScenes
	PhaseCopyingResources
	PhaseSerializingContainer
	PhaseArchivingStaging
	PhasePlatformPackaging
	PhaseFinalizing
	PhaseSucceeded
	PhaseFailed
)

var phaseNames = [...]string{
	"ValidatingTargets",
	"ClearingStaging",
	"AwaitingPriorCompilation",
	"DiscoveringResources",
	"CompilingScenes",
	"CopyingResources",
	"SerializingContainer",
	"ArchivingStaging",
	"PlatformPackaging",
	"Finalizing",
	"Succeeded",
	"Failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Terminal reports whether p ends a run
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// ErrNoTarget is returned when an export names no platform
var ErrNoTarget = errors.New("no target platform selected")

// PhaseError is the fatal error that aborted a run, with the phase it happened in
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
