package runner

import "time"

// TestSuite defines a complete integration test scenario.
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

// TestStep is a single request against the API and its expected outcome.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Method       string       `json:"method,omitempty"` // defaults to GET
	Path         string       `json:"path"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check in a step's response
type Expectations struct {
	Status *int `json:"status,omitempty"` // defaults to 200

	// JSON body checks
	Length *int           `json:"length,omitempty"` // number of elements in a JSON array body
	Fields map[string]any `json:"fields,omitempty"` // top-level fields of a JSON object body
	IDs    []string       `json:"ids,omitempty"`    // "id" of each element of a JSON array body, in order

	BodyContains    []string `json:"body_contains,omitempty"`
	BodyNotContains []string `json:"body_not_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName   string
	Success    bool
	Error      error
	Duration   time.Duration
	StatusCode int
	Body       string
}

// TestJob represents a test suite to be executed
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
