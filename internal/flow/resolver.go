package flow

import (
	"slices"
	"strings"

	"quitflow/internal/question"
)

// ApplicableQuestions computes the ordered subset of questions that should
// be presented given the current answer cache.
//
// Pure and deterministic: no I/O, and the result is always a fresh slice.
// A question is applicable iff it declares no dependency, or the current
// answer of its parent equals the declared dependency value. A single
// filter pass suffices for multi-level chains: an inapplicable parent has
// no live answer, so no child condition can match it.
//
// Output is sorted by (Order, Key); the key tiebreak keeps equal orders
// deterministic.
func ApplicableQuestions(questions []question.Question, answers map[string]question.Value) []question.Question {
	applicable := make([]question.Question, 0, len(questions))
	for _, q := range questions {
		if !q.Conditional() {
			applicable = append(applicable, q)
			continue
		}
		if question.Matches(answers[q.DependsOnKey], q.DependsOnValue) {
			applicable = append(applicable, q)
		}
	}

	slices.SortStableFunc(applicable, func(a, b question.Question) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.Key, b.Key)
	})

	return applicable
}

// directDependents returns the questions that declare a dependency on the
// given key, in input order.
func directDependents(questions []question.Question, key string) []question.Question {
	var deps []question.Question
	for _, q := range questions {
		if q.DependsOnKey == key {
			deps = append(deps, q)
		}
	}
	return deps
}
