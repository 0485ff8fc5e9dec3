package packs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quitflow/internal/question"
)

func writePackFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const onboardingPack = `package onboarding

context: "onboarding"

question: name: {
	order:    1
	kind:     "TEXT"
	text:     "Qual é o seu nome?"
	category: "profile"
}

question: addiction_type: {
	order: 2
	kind:  "SINGLE_CHOICE"
	text:  "O que você fuma?"
	choices: ["Cigarro", "Vape", "Ambos"]
}

question: cigarettes_per_day: {
	order: 3
	kind:  "NUMBER"
	text:  "Quantos cigarros por dia?"
	depends_on: {
		question: "addiction_type"
		value:    "Cigarro"
	}
}
`

func TestLoadPackBasic(t *testing.T) {
	dir := t.TempDir()
	writePackFile(t, dir, "onboarding.cue", onboardingPack)

	result, errs := LoadPack(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, result)

	assert.Equal(t, "onboarding", result.Context)
	assert.Equal(t, 1, result.FileCount)
	require.Len(t, result.Questions, 3)

	byKey := make(map[string]question.Question)
	for _, q := range result.Questions {
		assert.Equal(t, "onboarding", q.Context)
		byKey[q.Key] = q
	}

	assert.Equal(t, question.KindSingleChoice, byKey["addiction_type"].Kind)
	assert.Equal(t, "addiction_type", byKey["cigarettes_per_day"].DependsOnKey)
}

func TestLoadPackMergesFiles(t *testing.T) {
	dir := t.TempDir()
	writePackFile(t, dir, "onboarding.cue", onboardingPack)
	writePackFile(t, dir, "extra.cue", `package onboarding

question: motivation: {
	order: 6
	kind:  "TEXT"
	text:  "Por que você quer parar?"
}
`)

	result, errs := LoadPack(dir, LoadModeFailFast)
	require.Empty(t, errs)

	assert.Equal(t, 2, result.FileCount)
	assert.Len(t, result.Questions, 4)
}

func TestLoadPackMissingDir(t *testing.T) {
	_, errs := LoadPack(filepath.Join(t.TempDir(), "nope"), LoadModeFailFast)

	require.Len(t, errs, 1)
	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadPackEmptyDir(t *testing.T) {
	_, errs := LoadPack(t.TempDir(), LoadModeFailFast)

	require.Len(t, errs, 1)
	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadPackMissingContext(t *testing.T) {
	dir := t.TempDir()
	writePackFile(t, dir, "pack.cue", `package broken

question: name: {
	order: 1
	kind:  "TEXT"
	text:  "Nome?"
}
`)

	_, errs := LoadPack(dir, LoadModeFailFast)

	require.NotEmpty(t, errs)
	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNoContext, loadErr.Code)
}

func TestLoadPackCollectAll(t *testing.T) {
	dir := t.TempDir()
	writePackFile(t, dir, "pack.cue", `package broken

context: "onboarding"

question: no_text: {
	order: 1
	kind:  "TEXT"
}

question: bad_kind: {
	order: 2
	kind:  "DROPDOWN"
	text:  "Pick"
}

question: fine: {
	order: 3
	kind:  "TEXT"
	text:  "Still loads"
}
`)

	result, errs := LoadPack(dir, LoadModeCollectAll)

	assert.Len(t, errs, 2)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "fine", result.Questions[0].Key)

	codes := make([]string, len(errs))
	for i, err := range errs {
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		codes[i] = loadErr.Code
	}
	assert.ElementsMatch(t, []string{ErrCodeMissingText, ErrCodeInvalidKind}, codes)
}

func TestLoadPackFailFastStopsEarly(t *testing.T) {
	dir := t.TempDir()
	writePackFile(t, dir, "pack.cue", `package broken

context: "onboarding"

question: a: {
	order: 1
	kind:  "TEXT"
}

question: b: {
	order: 2
	kind:  "DROPDOWN"
	text:  "Pick"
}
`)

	_, errs := LoadPack(dir, LoadModeFailFast)

	assert.Len(t, errs, 1)
}
