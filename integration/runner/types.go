package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/rando-engine/internal/handlers"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep submits one seed request and checks the outcome
type TestStep struct {
	Name         string                     `json:"name,omitempty"`
	Request      handlers.CreateSeedRequest `json:"request"`
	Expectations Expectations               `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// HTTPStatus is the status of the create call. Anything other than 202
	// ends the step after the check.
	HTTPStatus    *int     `json:"http_status,omitempty"`
	ErrorContains []string `json:"error_contains,omitempty"`

	// Job outcome
	State      *string `json:"state,omitempty"` // completed or failed
	Difficulty *string `json:"difficulty,omitempty"`
	Map        *string `json:"map,omitempty"`
	Start      *string `json:"start,omitempty"`
	Placements *int    `json:"placements,omitempty"`
	// Items that must appear somewhere in the placement
	Items []string `json:"items,omitempty"`
	// SameAs names an earlier step whose placement must match exactly
	SameAs string `json:"same_as,omitempty"`

	// Spoiler text analysis
	SpoilerContains    []string `json:"spoiler_contains,omitempty"`
	SpoilerNotContains []string `json:"spoiler_not_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	SeedID   uuid.UUID
	Spoiler  string

	// Set when the seed completed
	Map        string
	Difficulty string
	Start      string
	// SameAs is copied from the step so summaries can count determinism checks
	SameAs string
}

// TestJob represents a test suite to be executed by a worker
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
}
