package packs

import (
	"fmt"
	"slices"
	"strings"

	"quitflow/internal/question"
)

// Validation error codes (E200-E299)
const (
	ErrDuplicateKey     = "E200" // duplicate question key
	ErrInvalidKind      = "E201" // unknown question kind
	ErrChoicesMissing   = "E202" // choice question without choices
	ErrChoicesForbidden = "E203" // non-choice question with choices
	ErrDanglingDep      = "E204" // depends_on references an unknown key
	ErrSelfDep          = "E205" // question depends on itself
	ErrDepValueUnknown  = "E206" // depends_on value not among parent choices
	ErrDepOrderInverted = "E207" // dependent ordered before its parent
	ErrDependencyCycle  = "E208" // cycle in the dependency graph
	ErrNonPositiveOrder = "E209" // order must be >= 1
	ErrDepOnMultiChoice = "E210" // parent is multi-choice, condition can never match
)

// ValidationError represents a question pack validation error.
type ValidationError struct {
	Key     string `json:"key"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("[%s] question %q: %s: %s", e.Code, e.Key, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled question pack against the rules the runtime
// depends on. Returns all errors found (does not fail-fast).
//
// Dependency cycles are hard errors: the applicability resolver filters in
// a single pass, which is only correct over an acyclic graph.
func Validate(questions []question.Question) []ValidationError {
	var errs []ValidationError

	byKey := make(map[string]question.Question, len(questions))
	for _, q := range questions {
		// E200: duplicate key
		if _, seen := byKey[q.Key]; seen {
			errs = append(errs, ValidationError{
				Key:     q.Key,
				Field:   "key",
				Message: "duplicate question key",
				Code:    ErrDuplicateKey,
			})
			continue
		}
		byKey[q.Key] = q
	}

	for _, q := range questions {
		// E201: unknown kind
		if !q.Kind.Valid() {
			errs = append(errs, ValidationError{
				Key:     q.Key,
				Field:   "kind",
				Message: fmt.Sprintf("unknown question kind %q", q.Kind),
				Code:    ErrInvalidKind,
			})
		}

		// E209: order must be positive
		if q.Order < 1 {
			errs = append(errs, ValidationError{
				Key:     q.Key,
				Field:   "order",
				Message: fmt.Sprintf("order must be >= 1, got %d", q.Order),
				Code:    ErrNonPositiveOrder,
			})
		}

		// E202/E203: choices must match the kind
		isChoiceKind := q.Kind == question.KindSingleChoice || q.Kind == question.KindMultiChoice
		if isChoiceKind && len(q.Choices) == 0 {
			errs = append(errs, ValidationError{
				Key:     q.Key,
				Field:   "choices",
				Message: "choice questions must declare at least one choice",
				Code:    ErrChoicesMissing,
			})
		}
		if !isChoiceKind && len(q.Choices) > 0 {
			errs = append(errs, ValidationError{
				Key:     q.Key,
				Field:   "choices",
				Message: fmt.Sprintf("%s questions cannot declare choices", q.Kind),
				Code:    ErrChoicesForbidden,
			})
		}

		if !q.Conditional() {
			continue
		}

		// E205: self-dependency
		if q.DependsOnKey == q.Key {
			errs = append(errs, ValidationError{
				Key:     q.Key,
				Field:   "depends_on",
				Message: "question cannot depend on itself",
				Code:    ErrSelfDep,
			})
			continue
		}

		// E204: dangling reference
		parent, ok := byKey[q.DependsOnKey]
		if !ok {
			errs = append(errs, ValidationError{
				Key:     q.Key,
				Field:   "depends_on.question",
				Message: fmt.Sprintf("unknown question key %q", q.DependsOnKey),
				Code:    ErrDanglingDep,
			})
			continue
		}

		// E210: equality against a multi-choice answer never matches
		if parent.Kind == question.KindMultiChoice {
			errs = append(errs, ValidationError{
				Key:     q.Key,
				Field:   "depends_on.question",
				Message: fmt.Sprintf("parent %q is multi-choice, the condition can never match", parent.Key),
				Code:    ErrDepOnMultiChoice,
			})
		}

		// E206: value must be satisfiable for choice parents
		if len(parent.Choices) > 0 && !slices.Contains(parent.Choices, q.DependsOnValue) {
			errs = append(errs, ValidationError{
				Key:     q.Key,
				Field:   "depends_on.value",
				Message: fmt.Sprintf("%q is not a choice of parent %q", q.DependsOnValue, parent.Key),
				Code:    ErrDepValueUnknown,
			})
		}

		// E207: a dependent presented before its parent can never be
		// reached with a live parent answer
		if q.Order <= parent.Order {
			errs = append(errs, ValidationError{
				Key:     q.Key,
				Field:   "order",
				Message: fmt.Sprintf("must come after parent %q (order %d)", parent.Key, parent.Order),
				Code:    ErrDepOrderInverted,
			})
		}
	}

	// E208: dependency cycles
	for _, cycle := range detectCycles(questions) {
		errs = append(errs, ValidationError{
			Key:     cycle[0],
			Field:   "depends_on",
			Message: fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")),
			Code:    ErrDependencyCycle,
		})
	}

	return errs
}

// dependencyGraph maps question key -> keys it depends on.
type dependencyGraph map[string][]string

// detectCycles finds cycles in the question dependency graph using
// Tarjan's strongly connected components algorithm. Each returned cycle
// is a closed key path: ["a", "b", "a"].
//
// Dangling references are skipped here; E204 already covers them.
func detectCycles(questions []question.Question) [][]string {
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.Key] = true
	}

	graph := make(dependencyGraph, len(questions))
	for _, q := range questions {
		if graph[q.Key] == nil {
			graph[q.Key] = []string{}
		}
		if q.Conditional() && known[q.DependsOnKey] {
			graph[q.Key] = append(graph[q.Key], q.DependsOnKey)
		}
	}

	// Deterministic traversal order keeps reported paths stable.
	keys := make([]string, 0, len(graph))
	for k := range graph {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	sccs := tarjanSCC(keys, graph)

	var cycles [][]string
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycle := append(scc, scc[0])
			cycles = append(cycles, cycle)
		}
	}
	return cycles
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of question keys.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(nodes []string, graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}
