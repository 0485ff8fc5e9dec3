package packs

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"quitflow/internal/question"
)

// CompileQuestion parses a CUE value into a Question.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the question struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`question: name: { order: 1, kind: "TEXT", text: "..." }`)
//	q, err := CompileQuestion(v.LookupPath(cue.ParsePath("question.name")))
//
// The question key is taken from the struct label. Context assignment is
// the loader's job; CompileQuestion leaves it empty.
func CompileQuestion(v cue.Value) (*question.Question, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	q := &question.Question{Required: true}

	// Question key from the struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		q.Key = labels[len(labels)-1].String()
	}

	// order (required)
	orderVal := v.LookupPath(cue.ParsePath("order"))
	if !orderVal.Exists() {
		return nil, &CompileError{
			Field:   "order",
			Message: "order is required",
			Pos:     v.Pos(),
		}
	}
	order, err := orderVal.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	q.Order = int(order)

	// kind (required, must be a known kind)
	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, &CompileError{
			Field:   "kind",
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	kindStr, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	kind, err := question.ParseKind(kindStr)
	if err != nil {
		return nil, &CompileError{
			Field:   "kind",
			Message: err.Error(),
			Pos:     kindVal.Pos(),
		}
	}
	q.Kind = kind

	// text (required)
	textVal := v.LookupPath(cue.ParsePath("text"))
	if !textVal.Exists() {
		return nil, &CompileError{
			Field:   "text",
			Message: "text is required",
			Pos:     v.Pos(),
		}
	}
	q.Text, err = textVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	// category (optional)
	categoryVal := v.LookupPath(cue.ParsePath("category"))
	if categoryVal.Exists() {
		q.Category, err = categoryVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
	}

	// required (optional, defaults to true)
	requiredVal := v.LookupPath(cue.ParsePath("required"))
	if requiredVal.Exists() {
		q.Required, err = requiredVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
	}

	// choices (optional list of strings)
	choicesVal := v.LookupPath(cue.ParsePath("choices"))
	if choicesVal.Exists() {
		iter, err := choicesVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			choice, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			q.Choices = append(q.Choices, choice)
		}
	}

	// depends_on (optional) - gates the question on a parent's answer
	depVal := v.LookupPath(cue.ParsePath("depends_on"))
	if depVal.Exists() {
		dep, err := parseDependency(depVal)
		if err != nil {
			return nil, err
		}
		q.DependsOnKey = dep.key
		q.DependsOnValue = dep.value
	}

	return q, nil
}

type dependency struct {
	key   string
	value string
}

// parseDependency parses a depends_on clause. Both fields are required:
// a dependency without a value cannot be evaluated.
func parseDependency(v cue.Value) (dependency, error) {
	var dep dependency

	keyVal := v.LookupPath(cue.ParsePath("question"))
	if !keyVal.Exists() {
		return dep, &CompileError{
			Field:   "depends_on.question",
			Message: "depends_on requires a question key",
			Pos:     v.Pos(),
		}
	}
	key, err := keyVal.String()
	if err != nil {
		return dep, formatCUEError(err)
	}
	dep.key = key

	valueVal := v.LookupPath(cue.ParsePath("value"))
	if !valueVal.Exists() {
		return dep, &CompileError{
			Field:   "depends_on.value",
			Message: "depends_on requires a value to match",
			Pos:     v.Pos(),
		}
	}
	value, err := valueVal.String()
	if err != nil {
		return dep, formatCUEError(err)
	}
	dep.value = value

	return dep, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
