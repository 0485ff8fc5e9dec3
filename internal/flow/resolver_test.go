package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quitflow/internal/question"
	"quitflow/internal/testutil"
)

// onboardingQuestions is the canonical branching fixture: a single-choice
// addiction type gates two mutually exclusive follow-ups.
func onboardingQuestions() []question.Question {
	return testutil.OnboardingQuestions("onboarding")
}

func applicableKeys(qs []question.Question) []string {
	keys := make([]string, len(qs))
	for i, q := range qs {
		keys[i] = q.Key
	}
	return keys
}

func TestApplicableQuestionsNoAnswers(t *testing.T) {
	got := ApplicableQuestions(onboardingQuestions(), nil)

	assert.Equal(t, []string{"name", "addiction_type", "years_smoking", "motivation"}, applicableKeys(got))
}

func TestApplicableQuestionsBranchSelection(t *testing.T) {
	qs := onboardingQuestions()

	cigarro := ApplicableQuestions(qs, map[string]question.Value{
		"addiction_type": question.Choice("Cigarro"),
	})
	assert.Equal(t,
		[]string{"name", "addiction_type", "cigarettes_per_day", "years_smoking", "motivation"},
		applicableKeys(cigarro))

	vape := ApplicableQuestions(qs, map[string]question.Value{
		"addiction_type": question.Choice("Vape"),
	})
	assert.Equal(t,
		[]string{"name", "addiction_type", "pod_duration", "years_smoking", "motivation"},
		applicableKeys(vape))
}

func TestApplicableQuestionsUnmatchedBranchValue(t *testing.T) {
	got := ApplicableQuestions(onboardingQuestions(), map[string]question.Value{
		"addiction_type": question.Choice("Ambos"),
	})

	assert.Equal(t, []string{"name", "addiction_type", "years_smoking", "motivation"}, applicableKeys(got))
}

func TestApplicableQuestionsChainedDependency(t *testing.T) {
	qs := []question.Question{
		{Key: "a", Order: 1, Kind: question.KindSingleChoice, Choices: []string{"yes", "no"}},
		{Key: "b", Order: 2, Kind: question.KindSingleChoice, Choices: []string{"yes", "no"},
			DependsOnKey: "a", DependsOnValue: "yes"},
		{Key: "c", Order: 3, Kind: question.KindText,
			DependsOnKey: "b", DependsOnValue: "yes"},
	}

	// b's stale "yes" survives in the cache, but a no longer selects b.
	// A conditional question is checked against the cache directly, so c
	// still matches its parent's live answer.
	got := ApplicableQuestions(qs, map[string]question.Value{
		"a": question.Choice("no"),
		"b": question.Choice("yes"),
	})
	assert.Equal(t, []string{"a", "c"}, applicableKeys(got))

	// With a=yes the whole chain is live.
	got = ApplicableQuestions(qs, map[string]question.Value{
		"a": question.Choice("yes"),
		"b": question.Choice("yes"),
	})
	assert.Equal(t, []string{"a", "b", "c"}, applicableKeys(got))
}

func TestApplicableQuestionsMultiChoiceParentNeverMatches(t *testing.T) {
	qs := []question.Question{
		{Key: "habits", Order: 1, Kind: question.KindMultiChoice, Choices: []string{"Cigarro", "Vape"}},
		{Key: "detail", Order: 2, Kind: question.KindText,
			DependsOnKey: "habits", DependsOnValue: "Cigarro"},
	}

	got := ApplicableQuestions(qs, map[string]question.Value{
		"habits": question.MultiChoice{"Cigarro"},
	})

	assert.Equal(t, []string{"habits"}, applicableKeys(got))
}

func TestApplicableQuestionsOrderTieBrokenByKey(t *testing.T) {
	qs := []question.Question{
		{Key: "zeta", Order: 2, Kind: question.KindText},
		{Key: "alpha", Order: 2, Kind: question.KindText},
		{Key: "first", Order: 1, Kind: question.KindText},
	}

	got := ApplicableQuestions(qs, nil)

	assert.Equal(t, []string{"first", "alpha", "zeta"}, applicableKeys(got))
}

func TestApplicableQuestionsReturnsFreshSlice(t *testing.T) {
	qs := onboardingQuestions()

	first := ApplicableQuestions(qs, nil)
	require.NotEmpty(t, first)
	first[0].Key = "mutated"

	second := ApplicableQuestions(qs, nil)
	assert.Equal(t, "name", second[0].Key)
	assert.Equal(t, "name", qs[0].Key)
}

func TestApplicableQuestionsEmptyInput(t *testing.T) {
	got := ApplicableQuestions(nil, nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDirectDependents(t *testing.T) {
	qs := onboardingQuestions()

	deps := directDependents(qs, "addiction_type")
	assert.Equal(t, []string{"cigarettes_per_day", "pod_duration"}, applicableKeys(deps))

	assert.Empty(t, directDependents(qs, "name"))
	assert.Empty(t, directDependents(qs, "missing"))
}
