package harness

import (
	"context"
	"fmt"
	"slices"
)

// evaluateAssertions checks every assertion against the finished session
// and the persisted state, collecting all failures.
func (h *Harness) evaluateAssertions(ctx context.Context, flowContext string, assertions []Assertion, result *Result) {
	for i, a := range assertions {
		if msg := h.evaluateAssertion(ctx, flowContext, &a); msg != "" {
			result.AddError(fmt.Sprintf("assertions[%d] (%s): %s", i, a.Type, msg))
		}
	}
}

// evaluateAssertion returns an empty string when the assertion holds.
func (h *Harness) evaluateAssertion(ctx context.Context, flowContext string, a *Assertion) string {
	switch a.Type {
	case AssertApplicable:
		got := applicableKeys(h.controller.Applicable())
		if !slices.Equal(got, a.Keys) {
			return fmt.Sprintf("expected applicable %v, got %v", a.Keys, got)
		}

	case AssertAnsweredCount:
		if got := h.controller.AnsweredCount(); got != a.Count {
			return fmt.Sprintf("expected %d answered, got %d", a.Count, got)
		}

	case AssertCacheContains:
		v, ok := h.controller.CachedValue(a.Question)
		if !ok {
			return fmt.Sprintf("no live answer for %q", a.Question)
		}
		if got := v.Encode(); got != a.Value {
			return fmt.Sprintf("expected %q answer %q, got %q", a.Question, a.Value, got)
		}

	case AssertCacheMissing:
		if _, ok := h.controller.CachedValue(a.Question); ok {
			return fmt.Sprintf("expected no live answer for %q", a.Question)
		}

	case AssertPersisted:
		raw, ok, err := h.persistedAnswer(ctx, flowContext, a.Question)
		if err != nil {
			return err.Error()
		}
		if !ok {
			return fmt.Sprintf("no stored answer for %q", a.Question)
		}
		if raw != a.Raw {
			return fmt.Sprintf("expected stored %q answer %q, got %q", a.Question, a.Raw, raw)
		}

	case AssertNotPersisted:
		_, ok, err := h.persistedAnswer(ctx, flowContext, a.Question)
		if err != nil {
			return err.Error()
		}
		if ok {
			return fmt.Sprintf("expected no stored answer for %q", a.Question)
		}

	case AssertCoins:
		if got := h.controller.CoinsEarned(); got != a.Amount {
			return fmt.Sprintf("expected %d coins earned, got %d", a.Amount, got)
		}

	case AssertBalance:
		got, err := h.store.Balance(ctx)
		if err != nil {
			return err.Error()
		}
		if got != a.Amount {
			return fmt.Sprintf("expected balance %d, got %d", a.Amount, got)
		}

	case AssertState:
		if got := string(h.controller.State()); got != a.State {
			return fmt.Sprintf("expected state %s, got %s", a.State, got)
		}
	}

	return ""
}

// persistedAnswer looks up one stored answer by question key.
func (h *Harness) persistedAnswer(ctx context.Context, flowContext, key string) (string, bool, error) {
	answers, err := h.store.ListAnswers(ctx, flowContext)
	if err != nil {
		return "", false, fmt.Errorf("listing answers: %w", err)
	}
	for _, a := range answers {
		if a.QuestionKey == key {
			return a.Raw, true, nil
		}
	}
	return "", false, nil
}
