package state

import (
	"sync"
	"time"
)

// Snapshot summarizes request health for the diagnostics view.
type Snapshot struct {
	LastError           error
	LastFailedOp        string
	LastUpdated         time.Time
	ConsecutiveFailures int // Number of consecutive failed requests or writes
	FetchFailures       int // Consecutive failed API requests; favorites writes excluded
	InFlight            int
}

// IsOffline returns true when the API has failed several times in a row.
func (s Snapshot) IsOffline() bool {
	return s.FetchFailures >= 2
}

// diagnostics is the failure sink. Fetch failures never reach the slots;
// they are recorded here instead.
type diagnostics struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

func (d *diagnostics) begin() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshot.InFlight++
}

func (d *diagnostics) end() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snapshot.InFlight > 0 {
		d.snapshot.InFlight--
	}
}

func (d *diagnostics) succeeded() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshot.LastError = nil
	d.snapshot.LastFailedOp = ""
	d.snapshot.LastUpdated = time.Now()
	d.snapshot.ConsecutiveFailures = 0
	d.snapshot.FetchFailures = 0
}

func (d *diagnostics) fetchFailed(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(op, err)
	d.snapshot.FetchFailures++
}

func (d *diagnostics) failed(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(op, err)
}

// record must be called with mu held.
func (d *diagnostics) record(op string, err error) {
	d.snapshot.LastError = err
	d.snapshot.LastFailedOp = op
	d.snapshot.LastUpdated = time.Now()
	d.snapshot.ConsecutiveFailures++
}

func (d *diagnostics) get() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot
}
