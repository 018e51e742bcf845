package runner

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Summary tallies suite runs by outcome and by what the finished seeds were
type Summary struct {
	suites    map[string]*suiteTally
	order     []string
	tiers     map[string]int
	maps      map[string]int
	sameHeld  int
	sameBroke int
	failures  []string
}

type suiteTally struct {
	passes   int
	failures int
	seeds    int
	elapsed  time.Duration
}

func NewSummary() *Summary {
	return &Summary{
		suites: make(map[string]*suiteTally),
		tiers:  make(map[string]int),
		maps:   make(map[string]int),
	}
}

// Add records one run of one suite
func (s *Summary) Add(run int, result TestRunResult) {
	name := result.Job.Name
	tally, ok := s.suites[name]
	if !ok {
		tally = &suiteTally{}
		s.suites[name] = tally
		s.order = append(s.order, name)
	}
	if result.Error != nil {
		tally.failures++
	} else {
		tally.passes++
	}
	tally.elapsed += result.Duration

	for _, step := range result.Results {
		if step.Difficulty != "" {
			tally.seeds++
			s.tiers[step.Difficulty]++
			s.maps[step.Map]++
		}
		if step.SameAs != "" {
			if step.Success {
				s.sameHeld++
			} else {
				s.sameBroke++
			}
		}
		if !step.Success && step.Error != nil {
			s.failures = append(s.failures, fmt.Sprintf("%s / %s (run %d): %v", name, step.StepName, run, step.Error))
		}
	}
}

// Failed is the number of suite runs that did not pass
func (s *Summary) Failed() int {
	n := 0
	for _, tally := range s.suites {
		n += tally.failures
	}
	return n
}

func (s *Summary) String() string {
	var sb strings.Builder
	sb.WriteString("Integration Summary:\n")
	for _, name := range s.order {
		tally := s.suites[name]
		total := tally.passes + tally.failures
		fmt.Fprintf(&sb, "   %s: %d/%d passed, %d seeds, avg %v\n",
			name, tally.passes, total, tally.seeds, (tally.elapsed / time.Duration(total)).Round(time.Millisecond))
		if tally.passes > 0 && tally.failures > 0 {
			sb.WriteString("      FLAKY: passed and failed across runs\n")
		}
	}
	fmt.Fprintf(&sb, "   Tiers: %s\n", counts(s.tiers))
	fmt.Fprintf(&sb, "   Maps: %s\n", counts(s.maps))
	if s.sameHeld+s.sameBroke > 0 {
		fmt.Fprintf(&sb, "   Determinism: %d of %d repeat seeds matched\n", s.sameHeld, s.sameHeld+s.sameBroke)
	}
	if len(s.failures) > 0 {
		sb.WriteString("Failures:\n")
		for _, f := range s.failures {
			fmt.Fprintf(&sb, "   ✗ %s\n", f)
		}
	}
	return sb.String()
}

// counts renders a name->count map sorted by name
func counts(m map[string]int) string {
	if len(m) == 0 {
		return "none"
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, m[name])
	}
	return strings.Join(parts, ", ")
}
