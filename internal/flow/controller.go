package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"quitflow/internal/question"
)

// State is the lifecycle phase of a flow session.
type State string

const (
	StateLoading  State = "LOADING"
	StateActive   State = "ACTIVE"
	StateComplete State = "COMPLETE"
)

// Persistence is the storage collaborator the controller drives. Satisfied
// by *store.Store.
type Persistence interface {
	ListQuestions(ctx context.Context, flowContext string) ([]question.Question, error)
	ListAnswers(ctx context.Context, flowContext string) ([]question.Answer, error)
	UpsertAnswer(ctx context.Context, flowContext, key, raw string) error
	DeleteAnswers(ctx context.Context, flowContext string, keys ...string) error
	AwardQuestionRewardOnce(ctx context.Context, amount int64, typ string, meta question.RewardMetadata) (question.Transaction, bool, error)
}

// CompletionFunc is the collaborator invoked by Finish. Downstream
// navigation belongs to the caller.
type CompletionFunc func(ctx context.Context, coinsEarned int64) error

// Config parameterizes a flow session.
type Config struct {
	// Context namespaces the flow ("onboarding", "daily_checkin", ...).
	Context string

	// RewardAmount is the one-time coin reward per answered question.
	// Zero disables rewards for this flow.
	RewardAmount int64

	// RewardType is the ledger transaction type for rewards. Defaults to
	// QUESTION_ANSWER. The legacy ONBOARDING_ANSWER type keys reward
	// idempotency on questionKey alone.
	RewardType string
}

// Controller orchestrates one mounted flow session: it holds the in-memory
// answer cache, the resolved applicable questions, and the navigation
// position, and applies answers as persist + reward + cascade.
//
// Thread-safety: all methods are safe for concurrent use; mutations are
// serialized by an internal mutex. Reward idempotency additionally holds
// across overlapping sessions because the ledger claims the reward slot
// inside a store transaction.
//
// INVARIANTS:
//   - Hydration runs at most once per Controller
//   - The cache always reflects the latest HandleAnswer input, even when
//     persistence failed (no rollback)
//   - applicable is recomputed after every answer, never mutated in place
type Controller struct {
	mu sync.Mutex

	store      Persistence
	cfg        Config
	onComplete CompletionFunc

	state        State
	hydrated     bool
	questions    []question.Question
	byKey        map[string]question.Question
	cache        map[string]question.Value
	applicable   []question.Question
	currentIndex int

	coinsEarned int64

	// rewardAt marks indices whose answer just earned a coin reward; a
	// transient UI signal, never persisted.
	rewardAt map[int]bool

	// nudgeArmed tracks the idle-timer UI nudge; back navigation cancels
	// it.
	nudgeArmed bool
}

// New creates a Controller for one flow session. onComplete may be nil
// when the caller has no completion side effects.
func New(store Persistence, cfg Config, onComplete CompletionFunc) *Controller {
	if cfg.RewardType == "" {
		cfg.RewardType = question.TypeQuestionAnswer
	}
	return &Controller{
		store:      store,
		cfg:        cfg,
		onComplete: onComplete,
		state:      StateLoading,
		byKey:      make(map[string]question.Question),
		cache:      make(map[string]question.Value),
		rewardAt:   make(map[int]bool),
	}
}

// Initialize hydrates the session: loads questions and answers
// concurrently, decodes answers into the cache, resolves the applicable
// set, and positions the session at the first unanswered question.
//
// Runs exactly once per Controller. A second call is a no-op: re-running
// hydration after the session started would silently reset the user's
// navigation position and clobber locally edited answers.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hydrated {
		slog.Debug("hydration skipped, session already hydrated", "context", c.cfg.Context)
		return nil
	}

	var (
		wg      sync.WaitGroup
		qs      []question.Question
		answers []question.Answer
		qErr    error
		aErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		qs, qErr = c.store.ListQuestions(ctx, c.cfg.Context)
	}()
	go func() {
		defer wg.Done()
		answers, aErr = c.store.ListAnswers(ctx, c.cfg.Context)
	}()
	wg.Wait()

	if qErr != nil {
		return newPersistenceError(c.cfg.Context, "", fmt.Errorf("load questions: %w", qErr))
	}
	if aErr != nil {
		return newPersistenceError(c.cfg.Context, "", fmt.Errorf("load answers: %w", aErr))
	}

	c.questions = qs
	c.byKey = make(map[string]question.Question, len(qs))
	for _, q := range qs {
		c.byKey[q.Key] = q
	}

	// Decode each answer into the cache. A malformed row degrades to its
	// raw text; a row whose question no longer exists is passed through
	// verbatim. The session must render either way.
	c.cache = make(map[string]question.Value, len(answers))
	for _, a := range answers {
		q, ok := c.byKey[a.QuestionKey]
		if !ok {
			slog.Debug("stored answer has no question, passing through",
				"context", c.cfg.Context,
				"question", a.QuestionKey,
			)
			c.cache[a.QuestionKey] = question.Text(a.Raw)
			continue
		}
		c.cache[a.QuestionKey] = question.DecodeOrRaw(q.Kind, a.Raw)
	}

	c.applicable = ApplicableQuestions(c.questions, c.cache)
	c.currentIndex = c.firstUnansweredIndex()
	c.state = StateActive
	c.hydrated = true

	slog.Info("session hydrated",
		"context", c.cfg.Context,
		"questions", len(c.questions),
		"answers", len(answers),
		"applicable", len(c.applicable),
		"index", c.currentIndex,
	)

	return nil
}

// firstUnansweredIndex returns the position of the first applicable
// question without a cached answer, or 0 when all are answered.
func (c *Controller) firstUnansweredIndex() int {
	for i, q := range c.applicable {
		if !question.Answered(c.cache[q.Key]) {
			return i
		}
	}
	return 0
}

// HandleAnswer applies a user's answer: optimistic cache write, persist,
// one-time reward, and cascade invalidation of dependent answers.
//
// On persistence failure the error propagates and the cache keeps the new
// value - the in-memory state always reflects the user's latest input.
func (c *Controller) HandleAnswer(ctx context.Context, key string, value question.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hydrated {
		return newNotHydratedError(c.cfg.Context)
	}
	if c.state == StateComplete {
		return newSessionCompleteError(c.cfg.Context)
	}

	q, ok := c.byKey[key]
	if !ok {
		return newUnknownQuestionError(c.cfg.Context, key)
	}

	// Step 1: optimistic cache update. Deliberately not rolled back on
	// any failure below.
	c.cache[key] = value

	// Step 2: serialize per the declared kind and persist.
	raw := value.Encode()
	if err := c.store.UpsertAnswer(ctx, c.cfg.Context, key, raw); err != nil {
		slog.Error("answer persist failed, cache kept",
			"context", c.cfg.Context,
			"question", key,
			"error", err,
		)
		return newPersistenceError(c.cfg.Context, key, err)
	}

	// Step 3: one-time coin reward.
	if c.cfg.RewardAmount > 0 {
		if err := c.awardReward(ctx, key); err != nil {
			return err
		}
	}

	// Step 4: cascade invalidation of the downstream path.
	if err := c.cascade(ctx, q); err != nil {
		return err
	}

	c.applicable = ApplicableQuestions(c.questions, c.cache)
	// currentIndex is deliberately left untouched: the next render shows
	// whatever question now occupies the position.

	slog.Debug("answer applied",
		"context", c.cfg.Context,
		"question", key,
		"applicable", len(c.applicable),
	)

	return nil
}

// awardReward grants the per-question coin reward at most once, by letting
// the ledger claim the (type, context, questionKey) slot atomically.
func (c *Controller) awardReward(ctx context.Context, key string) error {
	meta := question.RewardMetadata{
		Context:     c.cfg.Context,
		QuestionKey: key,
	}
	if c.cfg.RewardType == question.TypeOnboardingAnswer {
		// Legacy type: metadata never carried a context.
		meta.Context = ""
	}

	_, inserted, err := c.store.AwardQuestionRewardOnce(ctx, c.cfg.RewardAmount, c.cfg.RewardType, meta)
	if err != nil {
		return newPersistenceError(c.cfg.Context, key, err)
	}
	if !inserted {
		slog.Debug("reward already granted, skipping",
			"context", c.cfg.Context,
			"question", key,
		)
		return nil
	}

	c.coinsEarned += c.cfg.RewardAmount
	c.rewardAt[c.currentIndex] = true

	slog.Info("reward granted",
		"context", c.cfg.Context,
		"question", key,
		"amount", c.cfg.RewardAmount,
	)

	return nil
}

// cascade invalidates the downstream path after a branching answer change:
// persisted answers of direct dependents are deleted, and the cache drops
// every question (other than the one just answered) positioned at or after
// the earliest dependent.
func (c *Controller) cascade(ctx context.Context, answered question.Question) error {
	deps := directDependents(c.questions, answered.Key)
	if len(deps) == 0 {
		return nil
	}

	keys := make([]string, len(deps))
	minOrder := deps[0].Order
	for i, d := range deps {
		keys[i] = d.Key
		if d.Order < minOrder {
			minOrder = d.Order
		}
	}

	if err := c.store.DeleteAnswers(ctx, c.cfg.Context, keys...); err != nil {
		return newPersistenceError(c.cfg.Context, answered.Key, err)
	}

	// The cache clear is positional: a changed branching answer
	// invalidates the entire downstream path, not only the declared
	// dependents.
	cleared := 0
	for _, q := range c.questions {
		if q.Key == answered.Key {
			continue
		}
		if q.Order >= minOrder {
			if _, ok := c.cache[q.Key]; ok {
				delete(c.cache, q.Key)
				cleared++
			}
		}
	}

	slog.Debug("cascade cleared downstream answers",
		"context", c.cfg.Context,
		"question", answered.Key,
		"dependents", len(deps),
		"cleared", cleared,
	)

	return nil
}

// HandleNext advances the navigation position by one, clamped to the
// applicable range.
func (c *Controller) HandleNext() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hydrated || len(c.applicable) == 0 {
		return
	}
	if c.currentIndex < len(c.applicable)-1 {
		c.currentIndex++
	}
}

// HandleBack moves the navigation position back by one, clamped at zero,
// and cancels any pending idle-timer nudge.
func (c *Controller) HandleBack() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nudgeArmed = false
	if !c.hydrated || len(c.applicable) == 0 {
		return
	}
	if c.currentIndex > 0 {
		c.currentIndex--
	}
}

// HandleFinish completes the session. Valid only while the last applicable
// question has a non-empty answer. Invokes the completion collaborator
// with the coins earned this session; downstream navigation belongs to the
// caller.
func (c *Controller) HandleFinish(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hydrated {
		return newNotHydratedError(c.cfg.Context)
	}
	if c.state == StateComplete {
		return newSessionCompleteError(c.cfg.Context)
	}

	if n := len(c.applicable); n > 0 {
		last := c.applicable[n-1]
		if !question.Answered(c.cache[last.Key]) {
			return newFlowIncompleteError(c.cfg.Context, last.Key)
		}
	}

	if c.onComplete != nil {
		if err := c.onComplete(ctx, c.coinsEarned); err != nil {
			return fmt.Errorf("completion collaborator: %w", err)
		}
	}

	c.state = StateComplete
	slog.Info("session finished",
		"context", c.cfg.Context,
		"coins_earned", c.coinsEarned,
	)

	return nil
}

// ArmIdleNudge arms the idle-timer UI nudge. Presentation concern; tracked
// here only because back navigation observably resets it.
func (c *Controller) ArmIdleNudge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nudgeArmed = true
}

// IdleNudgeArmed reports whether the idle nudge is pending.
func (c *Controller) IdleNudgeArmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nudgeArmed
}

// State returns the session lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentQuestion returns the question at the navigation position.
// ok is false when the applicable set is empty or the position fell past
// its end after a cascade.
func (c *Controller) CurrentQuestion() (q question.Question, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentIndex < 0 || c.currentIndex >= len(c.applicable) {
		return question.Question{}, false
	}
	return c.applicable[c.currentIndex], true
}

// CurrentIndex returns the navigation position.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentIndex
}

// IsAnswered reports whether the current question has a live answer.
func (c *Controller) IsAnswered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentIndex < 0 || c.currentIndex >= len(c.applicable) {
		return false
	}
	return question.Answered(c.cache[c.applicable[c.currentIndex].Key])
}

// IsLastQuestion reports whether the navigation position is at the final
// applicable question.
func (c *Controller) IsLastQuestion() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.applicable) > 0 && c.currentIndex == len(c.applicable)-1
}

// AnsweredCount returns how many currently-applicable questions have a
// live answer. Stale cache entries for inapplicable questions never
// inflate the count.
func (c *Controller) AnsweredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, q := range c.applicable {
		if question.Answered(c.cache[q.Key]) {
			count++
		}
	}
	return count
}

// TotalApplicable returns the size of the resolved applicable set.
func (c *Controller) TotalApplicable() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.applicable)
}

// CoinsEarned returns the coins granted during this session.
func (c *Controller) CoinsEarned() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coinsEarned
}

// ShouldPlayReward reports whether the answer at the given position just
// earned a reward. Transient UI signal, reset per session, not persisted.
func (c *Controller) ShouldPlayReward(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rewardAt[index]
}

// CachedValue returns the live cache entry for a question key.
func (c *Controller) CachedValue(key string) (question.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache[key]
	return v, ok
}

// Applicable returns a copy of the resolved applicable questions.
func (c *Controller) Applicable() []question.Question {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]question.Question, len(c.applicable))
	copy(out, c.applicable)
	return out
}
