package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running barter-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 30 * time.Second},
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep performs one request and checks its expectations
func (r *Runner) runStep(ctx context.Context, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	method := step.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+step.Path, nil)
	if err != nil {
		result.Error = fmt.Errorf("failed to create request: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		result.Error = fmt.Errorf("request failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = fmt.Errorf("failed to read response body: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	result.StatusCode = resp.StatusCode
	result.Body = string(body)

	if err := checkExpectations(step.Expectations, resp.StatusCode, body); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// checkExpectations validates a response against the step's expectations
func checkExpectations(exp Expectations, status int, body []byte) error {
	wantStatus := http.StatusOK
	if exp.Status != nil {
		wantStatus = *exp.Status
	}
	if status != wantStatus {
		return fmt.Errorf("expected status %d, got %d: %s", wantStatus, status, strings.TrimSpace(string(body)))
	}

	lowerBody := strings.ToLower(string(body))
	for _, expectedText := range exp.BodyContains {
		if !strings.Contains(lowerBody, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected body to contain '%s', but it didn't", expectedText)
		}
	}
	for _, unexpectedText := range exp.BodyNotContains {
		if strings.Contains(lowerBody, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected body to NOT contain '%s', but it did", unexpectedText)
		}
	}

	if exp.Length != nil || len(exp.IDs) > 0 {
		var arr []map[string]any
		if err := json.Unmarshal(body, &arr); err != nil {
			return fmt.Errorf("expected a JSON array body: %w", err)
		}
		if exp.Length != nil && len(arr) != *exp.Length {
			return fmt.Errorf("expected %d elements, got %d", *exp.Length, len(arr))
		}
		if len(exp.IDs) > 0 {
			got := make([]string, 0, len(arr))
			for _, el := range arr {
				id, _ := el["id"].(string)
				got = append(got, id)
			}
			if strings.Join(got, ",") != strings.Join(exp.IDs, ",") {
				return fmt.Errorf("expected ids %v, got %v", exp.IDs, got)
			}
		}
	}

	if len(exp.Fields) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(body, &obj); err != nil {
			return fmt.Errorf("expected a JSON object body: %w", err)
		}
		for key, expectedValue := range exp.Fields {
			actualValue, exists := obj[key]
			if !exists {
				return fmt.Errorf("expected field %s to be set, but it doesn't exist", key)
			}
			if fmt.Sprint(actualValue) != fmt.Sprint(expectedValue) {
				return fmt.Errorf("expected field %s to be %v, got %v", key, expectedValue, actualValue)
			}
		}
	}

	return nil
}
