package packs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quitflow/internal/question"
)

func validPack() []question.Question {
	return []question.Question{
		{Key: "name", Order: 1, Kind: question.KindText, Text: "Nome?"},
		{Key: "addiction_type", Order: 2, Kind: question.KindSingleChoice, Text: "O que você fuma?",
			Choices: []string{"Cigarro", "Vape", "Ambos"}},
		{Key: "cigarettes_per_day", Order: 3, Kind: question.KindNumber, Text: "Quantos por dia?",
			DependsOnKey: "addiction_type", DependsOnValue: "Cigarro"},
		{Key: "pod_duration", Order: 4, Kind: question.KindText, Text: "Quanto dura um pod?",
			DependsOnKey: "addiction_type", DependsOnValue: "Vape"},
	}
}

func codesOf(errs []ValidationError) []string {
	codes := make([]string, len(errs))
	for i, e := range errs {
		codes[i] = e.Code
	}
	return codes
}

func TestValidatePackClean(t *testing.T) {
	assert.Empty(t, Validate(validPack()))
}

func TestValidateDuplicateKey(t *testing.T) {
	pack := validPack()
	pack = append(pack, question.Question{Key: "name", Order: 9, Kind: question.KindText, Text: "Again"})

	errs := Validate(pack)
	assert.Contains(t, codesOf(errs), ErrDuplicateKey)
}

func TestValidateUnknownKind(t *testing.T) {
	errs := Validate([]question.Question{
		{Key: "q", Order: 1, Kind: "DROPDOWN", Text: "?"},
	})
	assert.Contains(t, codesOf(errs), ErrInvalidKind)
}

func TestValidateChoiceRules(t *testing.T) {
	errs := Validate([]question.Question{
		{Key: "empty_choice", Order: 1, Kind: question.KindSingleChoice, Text: "?"},
		{Key: "text_with_choices", Order: 2, Kind: question.KindText, Text: "?",
			Choices: []string{"a"}},
	})

	codes := codesOf(errs)
	assert.Contains(t, codes, ErrChoicesMissing)
	assert.Contains(t, codes, ErrChoicesForbidden)
}

func TestValidateDanglingDependency(t *testing.T) {
	errs := Validate([]question.Question{
		{Key: "q", Order: 1, Kind: question.KindText, Text: "?",
			DependsOnKey: "ghost", DependsOnValue: "x"},
	})
	assert.Contains(t, codesOf(errs), ErrDanglingDep)
}

func TestValidateSelfDependency(t *testing.T) {
	errs := Validate([]question.Question{
		{Key: "q", Order: 1, Kind: question.KindText, Text: "?",
			DependsOnKey: "q", DependsOnValue: "x"},
	})
	assert.Contains(t, codesOf(errs), ErrSelfDep)
}

func TestValidateDependencyValueNotAChoice(t *testing.T) {
	pack := validPack()
	pack = append(pack, question.Question{
		Key: "q", Order: 9, Kind: question.KindText, Text: "?",
		DependsOnKey: "addiction_type", DependsOnValue: "Charuto",
	})

	errs := Validate(pack)
	assert.Contains(t, codesOf(errs), ErrDepValueUnknown)
}

func TestValidateInvertedOrder(t *testing.T) {
	pack := validPack()
	pack = append(pack, question.Question{
		Key: "q", Order: 2, Kind: question.KindText, Text: "?",
		DependsOnKey: "addiction_type", DependsOnValue: "Vape",
	})

	errs := Validate(pack)
	assert.Contains(t, codesOf(errs), ErrDepOrderInverted)
}

func TestValidateMultiChoiceParent(t *testing.T) {
	errs := Validate([]question.Question{
		{Key: "habits", Order: 1, Kind: question.KindMultiChoice, Text: "?",
			Choices: []string{"Cigarro", "Vape"}},
		{Key: "detail", Order: 2, Kind: question.KindText, Text: "?",
			DependsOnKey: "habits", DependsOnValue: "Cigarro"},
	})
	assert.Contains(t, codesOf(errs), ErrDepOnMultiChoice)
}

func TestValidateNonPositiveOrder(t *testing.T) {
	errs := Validate([]question.Question{
		{Key: "q", Order: 0, Kind: question.KindText, Text: "?"},
	})
	assert.Contains(t, codesOf(errs), ErrNonPositiveOrder)
}

func TestDetectCyclesTwoNode(t *testing.T) {
	// Orders satisfy nothing here on purpose; cycle detection is
	// independent of presentation order.
	cycles := detectCycles([]question.Question{
		{Key: "a", Order: 1, Kind: question.KindText, Text: "?",
			DependsOnKey: "b", DependsOnValue: "x"},
		{Key: "b", Order: 2, Kind: question.KindText, Text: "?",
			DependsOnKey: "a", DependsOnValue: "y"},
	})

	require.Len(t, cycles, 1)
	cycle := cycles[0]
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	assert.ElementsMatch(t, []string{"a", "b"}, cycle[:len(cycle)-1])
}

func TestDetectCyclesLongChainIsAcyclic(t *testing.T) {
	cycles := detectCycles([]question.Question{
		{Key: "a", Order: 1, Kind: question.KindText, Text: "?"},
		{Key: "b", Order: 2, Kind: question.KindText, Text: "?",
			DependsOnKey: "a", DependsOnValue: "x"},
		{Key: "c", Order: 3, Kind: question.KindText, Text: "?",
			DependsOnKey: "b", DependsOnValue: "x"},
	})
	assert.Empty(t, cycles)
}

func TestValidateCycleReported(t *testing.T) {
	errs := Validate([]question.Question{
		{Key: "a", Order: 2, Kind: question.KindText, Text: "?",
			DependsOnKey: "b", DependsOnValue: "x"},
		{Key: "b", Order: 3, Kind: question.KindText, Text: "?",
			DependsOnKey: "a", DependsOnValue: "y"},
	})
	assert.Contains(t, codesOf(errs), ErrDependencyCycle)
}
