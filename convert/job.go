package convert

import "github.com/google/uuid"

// Status is a job's position in its lifecycle. Jobs move strictly
// forward: Pending → SelectingStrategy → Converting → Succeeded or
// Failed.
type Status int

const (
	StatusPending Status = iota
	StatusSelectingStrategy
	StatusConverting
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSelectingStrategy:
		return "selecting strategy"
	case StatusConverting:
		return "converting"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Strategy names the conversion path a job took.
type Strategy string

const (
	StrategyNone     Strategy = ""
	StrategyPrimary  Strategy = "primary"
	StrategyFallback Strategy = "fallback"
)

// job tracks one document's conversion through the state machine.
type job struct {
	ID       uuid.UUID
	Input    string
	Status   Status
	Strategy Strategy
}

func newJob(input string) *job {
	return &job{ID: uuid.New(), Input: input, Status: StatusPending}
}

// Result reports one document's conversion outcome.
type Result struct {
	JobID      uuid.UUID
	Input      string
	Status     Status
	Strategy   Strategy
	OutputPath string   // written .md file, empty on failure
	ImagePaths []string // extracted images relative to the output dir
	// Degraded marks a fallback conversion that replaced untranscodable
	// formulas with their literal text.
	Degraded bool
	Err      *Error // nil on success
}

// BatchReport aggregates per-file results in input order.
type BatchReport struct {
	Results []Result
}

// Succeeded counts jobs that completed.
func (r *BatchReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusSucceeded {
			n++
		}
	}
	return n
}

// Failed counts jobs that did not complete.
func (r *BatchReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// ProgressFunc receives a notification after each job in a batch
// finishes. Calls are serialized; completed counts finished jobs
// including the one just reported.
type ProgressFunc func(completed, total int, file string)
