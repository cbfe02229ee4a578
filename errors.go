package transcache

import "fmt"

// TierError indicates a failure reaching or operating a cache tier
// (network, auth, serialization). The orchestrator logs these and
// treats the tier as unavailable for the call; they never surface to
// the caller.
type TierError struct {
	Tier  string // tier name, e.g. "redis", "postgres", "local"
	Op    string // "get" or "set"
	Cause error
}

func (e *TierError) Error() string {
	return fmt.Sprintf("%s tier %s failed: %v", e.Tier, e.Op, e.Cause)
}

func (e *TierError) Unwrap() error {
	return e.Cause
}

// SnapshotError indicates a failure reading or writing the local tier's
// snapshot file. Non-fatal: a failed write only means the cache won't
// survive a restart.
type SnapshotError struct {
	Path  string
	Op    string // "load" or "save"
	Cause error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot %s failed for %s: %v", e.Op, e.Path, e.Cause)
}

func (e *SnapshotError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates an upstream translation provider failure
// (API error, rate limit, etc.).
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates the provider returned a different number
// of translations than requested.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}
