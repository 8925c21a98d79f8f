// Package metrics defines the controller's observability hooks and a
// Prometheus implementation.
package metrics

import "time"

// ResultLabel enumerates message outcomes for counters.
type ResultLabel string

const (
	ResultApplied  ResultLabel = "applied"
	ResultIgnored  ResultLabel = "ignored"
	ResultRejected ResultLabel = "rejected"
)

// Recorder receives controller measurements. Implementations must be safe
// for concurrent use.
type Recorder interface {
	IncMessage(id string, result ResultLabel)
	IncUnknownName(id string)
	ObserveDispatchDuration(d time.Duration)
	IncBroadcast(receivers int)
	SetClients(n int)
	IncPersist(op string, success bool)
	SetStateBytes(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are disabled).
type NoopRecorder struct{}

func (NoopRecorder) IncMessage(string, ResultLabel)        {}
func (NoopRecorder) IncUnknownName(string)                 {}
func (NoopRecorder) ObserveDispatchDuration(time.Duration) {}
func (NoopRecorder) IncBroadcast(int)                      {}
func (NoopRecorder) SetClients(int)                        {}
func (NoopRecorder) IncPersist(string, bool)               {}
func (NoopRecorder) SetStateBytes(int)                     {}
