package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a question pack, a
// scripted flow session, and assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Pack is the question pack directory, relative to the scenario file
	// location unless absolute.
	Pack string `yaml:"pack"`

	// RewardAmount is the per-question coin reward. Zero disables rewards.
	RewardAmount int64 `yaml:"reward_amount,omitempty"`

	// Steps contains the scripted user actions, executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final session and persisted state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step represents one user action. Exactly one field must be set.
type Step struct {
	// Answer submits an answer for a question.
	Answer *AnswerStep `yaml:"answer,omitempty"`

	// Next advances the navigation position.
	Next bool `yaml:"next,omitempty"`

	// Back moves the navigation position back.
	Back bool `yaml:"back,omitempty"`

	// Finish completes the session.
	Finish bool `yaml:"finish,omitempty"`

	// ExpectError is the expected flow error code for this step.
	// Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// AnswerStep submits an answer. Value is interpreted per the question's
// declared kind: numbers for NUMBER, a list for MULTIPLE_CHOICE, strings
// otherwise.
type AnswerStep struct {
	Question string `yaml:"question"`
	Value    any    `yaml:"value"`
}

// Assertion validates the session or persisted state after all steps ran.
type Assertion struct {
	// Type specifies the assertion type; see the package documentation.
	Type string `yaml:"type"`

	// Keys is the expected applicable key order (used by applicable).
	Keys []string `yaml:"keys,omitempty"`

	// Question names the asserted question (cache and persistence types).
	Question string `yaml:"question,omitempty"`

	// Value is the expected live answer in encoded form (cache_contains).
	Value string `yaml:"value,omitempty"`

	// Raw is the expected stored answer (persisted).
	Raw string `yaml:"raw,omitempty"`

	// Count is the expected answered count (answered_count).
	Count int `yaml:"count,omitempty"`

	// Amount is the expected coin amount (coins, balance).
	Amount int64 `yaml:"amount,omitempty"`

	// State is the expected session state (state).
	State string `yaml:"state,omitempty"`
}

// Assertion type constants.
const (
	AssertApplicable    = "applicable"
	AssertAnsweredCount = "answered_count"
	AssertCacheContains = "cache_contains"
	AssertCacheMissing  = "cache_missing"
	AssertPersisted     = "persisted"
	AssertNotPersisted  = "not_persisted"
	AssertCoins         = "coins"
	AssertBalance       = "balance"
	AssertState         = "state"
)

// LoadScenario reads and parses a scenario YAML file. The pack path is
// resolved relative to the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Pack != "" && !filepath.IsAbs(scenario.Pack) {
		scenario.Pack = filepath.Join(filepath.Dir(path), scenario.Pack)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Pack == "" {
		return fmt.Errorf("pack is required")
	}
	if info, err := os.Stat(s.Pack); err != nil || !info.IsDir() {
		return fmt.Errorf("pack directory not found: %s", s.Pack)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks that exactly one action is set per step.
func validateStep(index int, s *Step) error {
	actions := 0
	if s.Answer != nil {
		actions++
		if s.Answer.Question == "" {
			return fmt.Errorf("steps[%d].answer: question is required", index)
		}
	}
	if s.Next {
		actions++
	}
	if s.Back {
		actions++
	}
	if s.Finish {
		actions++
	}

	if actions == 0 {
		return fmt.Errorf("steps[%d]: one of answer, next, back, finish is required", index)
	}
	if actions > 1 {
		return fmt.Errorf("steps[%d]: only one action per step", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertApplicable:
		if len(a.Keys) == 0 {
			return fmt.Errorf("assertions[%d]: keys list is required for applicable", index)
		}
	case AssertAnsweredCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertCacheContains:
		if a.Question == "" {
			return fmt.Errorf("assertions[%d]: question is required for cache_contains", index)
		}
	case AssertCacheMissing, AssertNotPersisted:
		if a.Question == "" {
			return fmt.Errorf("assertions[%d]: question is required for %s", index, a.Type)
		}
	case AssertPersisted:
		if a.Question == "" {
			return fmt.Errorf("assertions[%d]: question is required for persisted", index)
		}
	case AssertCoins, AssertBalance:
		if a.Amount < 0 {
			return fmt.Errorf("assertions[%d]: amount must be non-negative", index)
		}
	case AssertState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
