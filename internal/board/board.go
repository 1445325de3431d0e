package board

import (
	"context"
	"errors"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// FailedDescription labels a slot whose generation task failed.
const FailedDescription = "Lỗi"

// Result is one slot of the board. Image holds a data URL when ready.
type Result struct {
	Status      Status `json:"status"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

type Snapshot struct {
	Invocation uint64   `json:"invocation"`
	Version    uint64   `json:"version"`
	Loading    bool     `json:"loading"`
	Error      string   `json:"error,omitempty"`
	Results    []Result `json:"results"`
}

// ErrStale is returned when a write targets an invocation that has been superseded.
var ErrStale = errors.New("board: stale invocation")

// Store keeps the latest result board per key. Begin opens a new invocation
// and shows loading placeholders; Settle and Fail only apply while their
// invocation is still the newest one.
type Store interface {
	Begin(ctx context.Context, key string, total int) (uint64, error)
	Settle(ctx context.Context, key string, id uint64, results []Result) error
	Fail(ctx context.Context, key string, id uint64, msg string) error
	Snapshot(ctx context.Context, key string) (Snapshot, error)
}

func Placeholders(n int) []Result {
	if n < 0 {
		n = 0
	}
	out := make([]Result, n)
	for i := range out {
		out[i] = Result{Status: StatusLoading}
	}
	return out
}

func (s Snapshot) Ready() int {
	return s.count(StatusReady)
}

func (s Snapshot) Failed() int {
	return s.count(StatusFailed)
}

func (s Snapshot) count(st Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == st {
			n++
		}
	}
	return n
}

func cloneResults(in []Result) []Result {
	out := make([]Result, len(in))
	copy(out, in)
	return out
}
