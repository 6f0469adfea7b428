package models

import appErrors "github.com/noah-isme/codepulse-api/pkg/errors"

// SnapshotState tags the variant held by a Snapshot.
type SnapshotState int

const (
	SnapshotAbsent SnapshotState = iota
	SnapshotPresent
	SnapshotFailed
)

// String implements fmt.Stringer.
func (s SnapshotState) String() string {
	switch s {
	case SnapshotPresent:
		return "present"
	case SnapshotFailed:
		return "failed"
	default:
		return "absent"
	}
}

// Snapshot is the outcome of resolving provider data for one student: Present carries data,
// Absent means the student has no identity on the platform, Failed carries the failure kind.
type Snapshot[T any] struct {
	state     SnapshotState
	data      T
	kind      appErrors.Kind
	fromCache bool
}

// Present wraps resolved data.
func Present[T any](data T, fromCache bool) Snapshot[T] {
	return Snapshot[T]{state: SnapshotPresent, data: data, fromCache: fromCache}
}

// Stale wraps stored data served because a refresh failed with kind.
func Stale[T any](data T, kind appErrors.Kind) Snapshot[T] {
	return Snapshot[T]{state: SnapshotPresent, data: data, kind: kind, fromCache: true}
}

// Absent marks a missing identity.
func Absent[T any]() Snapshot[T] {
	return Snapshot[T]{state: SnapshotAbsent}
}

// Failed records a provider failure without data.
func Failed[T any](kind appErrors.Kind) Snapshot[T] {
	return Snapshot[T]{state: SnapshotFailed, kind: kind}
}

// State returns the variant tag.
func (s Snapshot[T]) State() SnapshotState { return s.state }

// Data returns the payload; only meaningful when State is SnapshotPresent.
func (s Snapshot[T]) Data() T { return s.data }

// ErrorKind returns the failure classification. It is set for Failed snapshots and for
// Present snapshots built with Stale.
func (s Snapshot[T]) ErrorKind() appErrors.Kind { return s.kind }

// FromCache reports whether present data was served from a stored snapshot.
func (s Snapshot[T]) FromCache() bool { return s.fromCache }

// Degraded reports whether present data stands in for a refresh that failed.
func (s Snapshot[T]) Degraded() bool { return s.state == SnapshotPresent && s.kind != "" }
