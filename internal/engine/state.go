package engine

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// nextState is the only legal successor of each scan state. Any state may
// also fall back to Idle on failure.
var nextState = map[models.ScanState]models.ScanState{
	models.ScanIdle:        models.ScanCollecting,
	models.ScanCollecting:  models.ScanEvaluating,
	models.ScanEvaluating:  models.ScanScoring,
	models.ScanScoring:     models.ScanAggregating,
	models.ScanAggregating: models.ScanDone,
}

// scanMachine tracks one scan. Done is terminal; a new scan starts from a
// fresh machine in Idle.
type scanMachine struct {
	state    models.ScanState
	observer func(from, to models.ScanState)
}

func newScanMachine(observer func(from, to models.ScanState)) *scanMachine {
	return &scanMachine{state: models.ScanIdle, observer: observer}
}

// advance moves to to, which must be the successor of the current state.
// The engine's transitions are fixed, so an illegal one is a programming
// error and panics.
func (m *scanMachine) advance(to models.ScanState) {
	if nextState[m.state] != to {
		panic(fmt.Sprintf("illegal scan transition %s -> %s", m.state, to))
	}
	m.set(to)
}

// fail returns the scan to Idle.
func (m *scanMachine) fail() {
	m.set(models.ScanIdle)
}

func (m *scanMachine) set(to models.ScanState) {
	from := m.state
	m.state = to
	if m.observer != nil {
		m.observer(from, to)
	}
}
