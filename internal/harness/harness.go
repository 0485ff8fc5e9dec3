package harness

import (
	"context"
	"errors"
	"fmt"

	"quitflow/internal/flow"
	"quitflow/internal/packs"
	"quitflow/internal/question"
	"quitflow/internal/store"
	"quitflow/internal/testutil"
)

// Harness drives one scenario execution: a fresh store, a seeded pack,
// and a mounted flow session.
type Harness struct {
	store      *store.Store
	controller *flow.Controller
	byKey      map[string]question.Question
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// ticking test clock for reproducible timestamps.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Load, validate, and seed the question pack
//  3. Mount and hydrate a flow session
//  4. Execute steps, recording a transcript event per step
//  5. Evaluate assertions against the session and the store
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	st.SetNowFunc(testutil.NewTickingClock().Now)

	loaded, loadErrs := packs.LoadPack(scenario.Pack, packs.LoadModeFailFast)
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("loading pack %s: %w", scenario.Pack, loadErrs[0])
	}
	if verrs := packs.Validate(loaded.Questions); len(verrs) > 0 {
		return nil, fmt.Errorf("invalid pack %s: %w", scenario.Pack, verrs[0])
	}

	ctx := context.Background()
	if err := st.SeedQuestions(ctx, loaded.Questions); err != nil {
		return nil, fmt.Errorf("seeding questions: %w", err)
	}

	controller := flow.New(st, flow.Config{
		Context:      loaded.Context,
		RewardAmount: scenario.RewardAmount,
	}, nil)
	if err := controller.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("hydrating session: %w", err)
	}

	h := &Harness{
		store:      st,
		controller: controller,
		byKey:      make(map[string]question.Question, len(loaded.Questions)),
	}
	for _, q := range loaded.Questions {
		h.byKey[q.Key] = q
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	h.evaluateAssertions(ctx, loaded.Context, scenario.Assertions, result)

	return result, nil
}

// executeStep runs one scripted action and appends a transcript event
// capturing the step outcome and the session view after it.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) {
	var (
		stepErr error
		event   = TranscriptEvent{Step: index}
	)

	switch {
	case step.Answer != nil:
		event.Type = "answer"
		event.Question = step.Answer.Question

		value, convErr := h.convertValue(step.Answer.Question, step.Answer.Value)
		if convErr != nil {
			result.AddError(fmt.Sprintf("steps[%d]: %v", index, convErr))
			return
		}
		event.Value = value.Encode()
		stepErr = h.controller.HandleAnswer(ctx, step.Answer.Question, value)

	case step.Next:
		event.Type = "next"
		h.controller.HandleNext()

	case step.Back:
		event.Type = "back"
		h.controller.HandleBack()

	case step.Finish:
		event.Type = "finish"
		stepErr = h.controller.HandleFinish(ctx)
	}

	if stepErr != nil {
		var flowErr *flow.FlowError
		if errors.As(stepErr, &flowErr) {
			event.Error = string(flowErr.Code)
		} else {
			event.Error = stepErr.Error()
		}
	}

	if step.ExpectError != event.Error {
		if step.ExpectError == "" {
			result.AddError(fmt.Sprintf("steps[%d]: unexpected error: %v", index, stepErr))
		} else {
			result.AddError(fmt.Sprintf("steps[%d]: expected error %q, got %q", index, step.ExpectError, event.Error))
		}
	}

	event.Index = h.controller.CurrentIndex()
	event.Applicable = applicableKeys(h.controller.Applicable())
	event.Answered = h.controller.AnsweredCount()
	event.Coins = h.controller.CoinsEarned()

	result.Transcript = append(result.Transcript, event)
}

// convertValue interprets a scenario value per the question's declared
// kind.
func (h *Harness) convertValue(key string, raw any) (question.Value, error) {
	q, ok := h.byKey[key]
	if !ok {
		// Let the controller report the unknown key.
		return question.Text(fmt.Sprint(raw)), nil
	}

	switch q.Kind {
	case question.KindNumber:
		switch n := raw.(type) {
		case int:
			return question.Number(n), nil
		case int64:
			return question.Number(n), nil
		default:
			return nil, fmt.Errorf("question %q expects an integer, got %T", key, raw)
		}

	case question.KindMultiChoice:
		if raw == nil {
			return question.MultiChoice{}, nil
		}
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("question %q expects a list, got %T", key, raw)
		}
		choices := make(question.MultiChoice, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("question %q expects string choices, got %T", key, item)
			}
			choices[i] = s
		}
		return choices, nil

	case question.KindSingleChoice:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("question %q expects a string, got %T", key, raw)
		}
		return question.Choice(s), nil

	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("question %q expects a string, got %T", key, raw)
		}
		return question.Text(s), nil
	}
}

func applicableKeys(questions []question.Question) []string {
	keys := make([]string, len(questions))
	for i, q := range questions {
		keys[i] = q.Key
	}
	return keys
}
