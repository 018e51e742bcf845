package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/rando-engine/internal/handlers"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
	"github.com/jwebster45206/rando-engine/pkg/storage"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running rando-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	TierOverride      string // If set, overrides the tier for every step that does not name one
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
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

	// Finished seeds by step name, for same_as checks
	done := make(map[string]*randomize.Randomization)

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult, res := r.runStep(ctx, step, done)
		stepResult.TestName = suite.Name
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
		if res != nil && step.Name != "" {
			done[step.Name] = res
		}
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a step, retrying once when the job did not finish in time
func (r *Runner) runStep(ctx context.Context, step TestStep, done map[string]*randomize.Randomization) (TestResult, *randomize.Randomization) {
	for attempt := 1; attempt <= 2; attempt++ {
		result, res := r.executeStep(ctx, step, done)
		if result.Success || result.Error == nil {
			return result, res
		}

		isTimeout := strings.Contains(result.Error.Error(), "timeout waiting for seed")
		if isTimeout && attempt == 1 {
			r.Logger("    Timeout detected, retrying step: %s", step.Name)
			continue
		}
		return result, res
	}

	return TestResult{StepName: step.Name, Error: fmt.Errorf("unexpected error in retry logic")}, nil
}

// executeStep submits the seed request, waits for the job and checks the outcome
func (r *Runner) executeStep(ctx context.Context, step TestStep, done map[string]*randomize.Randomization) (TestResult, *randomize.Randomization) {
	start := time.Now()
	result := TestResult{StepName: step.Name, SameAs: step.Expectations.SameAs}
	fail := func(err error) (TestResult, *randomize.Randomization) {
		result.Error = err
		result.Duration = time.Since(start)
		return result, nil
	}

	req := step.Request
	if req.Tier == "" && r.TierOverride != "" {
		req.Tier = r.TierOverride
	}

	created, status, body, err := PostSeed(ctx, r.Client, r.BaseURL, req)
	if err != nil {
		return fail(err)
	}
	exp := step.Expectations
	if exp.HTTPStatus != nil && status != *exp.HTTPStatus {
		return fail(fmt.Errorf("expected HTTP status %d, got %d: %s", *exp.HTTPStatus, status, body))
	}
	if created == nil {
		if exp.HTTPStatus == nil {
			return fail(fmt.Errorf("seed request rejected with status %d: %s", status, body))
		}
		if err := checkContains("error", body, exp.ErrorContains, nil); err != nil {
			return fail(err)
		}
		result.Success = true
		result.Duration = time.Since(start)
		return result, nil
	}
	result.SeedID = created.ID

	seed, err := PollForSeed(ctx, r.Client, r.BaseURL, created.ID, r.Timeout)
	if err != nil {
		return fail(err)
	}

	if seed.Status.State == storage.SeedCompleted && (len(exp.SpoilerContains) > 0 || len(exp.SpoilerNotContains) > 0) {
		spoiler, err := GetSpoiler(ctx, r.Client, r.BaseURL, created.ID)
		if err != nil {
			return fail(err)
		}
		result.Spoiler = spoiler
	}

	if err := r.checkExpectations(exp, seed, result.Spoiler, done); err != nil {
		return fail(err)
	}

	if res := seed.Result; res != nil {
		result.Map, result.Difficulty, result.Start = res.Map, res.Difficulty, res.Start
	}
	result.Success = true
	result.Duration = time.Since(start)
	return result, seed.Result
}

// checkExpectations verifies a finished seed job against the step's expectations
func (r *Runner) checkExpectations(exp Expectations, seed *handlers.SeedResponse, spoiler string, done map[string]*randomize.Randomization) error {
	state := string(seed.Status.State)
	wantState := string(storage.SeedCompleted)
	if exp.State != nil {
		wantState = *exp.State
	}
	if state != wantState {
		return fmt.Errorf("expected seed state %s, got %s (error: %q)", wantState, state, seed.Status.Error)
	}
	if seed.Status.State == storage.SeedFailed {
		return checkContains("error", seed.Status.Error, exp.ErrorContains, nil)
	}

	res := seed.Result
	if res == nil {
		return fmt.Errorf("completed seed %s has no result", seed.Status.ID)
	}

	if exp.Difficulty != nil && res.Difficulty != *exp.Difficulty {
		return fmt.Errorf("expected difficulty %s, got %s", *exp.Difficulty, res.Difficulty)
	}
	if exp.Map != nil && res.Map != *exp.Map {
		return fmt.Errorf("expected map %s, got %s", *exp.Map, res.Map)
	}
	if exp.Start != nil && res.Start != *exp.Start {
		return fmt.Errorf("expected start %s, got %s", *exp.Start, res.Start)
	}
	if exp.Placements != nil && len(res.Placement) != *exp.Placements {
		return fmt.Errorf("expected %d placements, got %d", *exp.Placements, len(res.Placement))
	}

	if len(exp.Items) > 0 {
		placed := make([]string, 0, len(res.Placement))
		for _, p := range res.Placement {
			placed = append(placed, p.Item.String())
		}
		for _, item := range exp.Items {
			if !slices.Contains(placed, item) {
				return fmt.Errorf("expected item %s to be placed, but it's missing", item)
			}
		}
	}

	if exp.SameAs != "" {
		prev, ok := done[exp.SameAs]
		if !ok {
			return fmt.Errorf("same_as references step %q, which has no finished seed", exp.SameAs)
		}
		if !slices.Equal(prev.Placement, res.Placement) {
			return fmt.Errorf("placement differs from step %q", exp.SameAs)
		}
		if prev.Start != res.Start || prev.Map != res.Map {
			return fmt.Errorf("expected %s/%s like step %q, got %s/%s", prev.Map, prev.Start, exp.SameAs, res.Map, res.Start)
		}
	}

	return checkContains("spoiler", spoiler, exp.SpoilerContains, exp.SpoilerNotContains)
}

// checkContains does case-insensitive substring checks on text
func checkContains(what, text string, contains, notContains []string) error {
	lower := strings.ToLower(text)
	for _, s := range contains {
		if !strings.Contains(lower, strings.ToLower(s)) {
			return fmt.Errorf("expected %s to contain %q, got: %s", what, s, text)
		}
	}
	for _, s := range notContains {
		if strings.Contains(lower, strings.ToLower(s)) {
			return fmt.Errorf("expected %s not to contain %q", what, s)
		}
	}
	return nil
}
