package question

import (
	"fmt"
	"time"
)

// Kind identifies how a question is answered and how its answer is stored.
// The set is closed: TEXT, NUMBER, SINGLE_CHOICE, MULTIPLE_CHOICE.
type Kind string

const (
	KindText         Kind = "TEXT"
	KindNumber       Kind = "NUMBER"
	KindSingleChoice Kind = "SINGLE_CHOICE"
	KindMultiChoice  Kind = "MULTIPLE_CHOICE"
)

// Kinds lists all valid kinds in a stable order.
var Kinds = []Kind{KindText, KindNumber, KindSingleChoice, KindMultiChoice}

// Valid reports whether k is one of the closed set of kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindSingleChoice, KindMultiChoice:
		return true
	}
	return false
}

// ParseKind converts a stored kind string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown question kind %q", s)
	}
	return k, nil
}

// Question is a single question definition within a flow context.
//
// Questions are immutable at runtime. Key is unique within a context;
// two questions in different contexts are unrelated even if their keys
// collide.
type Question struct {
	// Key is the stable identifier referenced by answers and dependency edges.
	Key string

	// Context namespaces the question within a flow ("onboarding",
	// "daily_checkin", ...).
	Context string

	// Order defines the presentation sequence within a context.
	Order int

	Kind     Kind
	Category string
	Text     string
	Required bool

	// DependsOnKey, when non-empty, makes this question applicable only
	// while the referenced question's current answer equals DependsOnValue.
	DependsOnKey   string
	DependsOnValue string

	// Choices holds the option list for SINGLE_CHOICE and MULTIPLE_CHOICE
	// kinds. Unused otherwise.
	Choices []string

	CreatedAt time.Time
}

// Conditional reports whether the question declares a dependency edge.
func (q Question) Conditional() bool {
	return q.DependsOnKey != ""
}

// Answer is a persisted answer row for one (context, questionKey) pair.
// At most one live Answer exists per pair; the single local user is
// implicit.
type Answer struct {
	ID          string
	Context     string
	QuestionKey string
	UserID      string

	// Raw is the stored serialized value. Decode it with the owning
	// question's Kind.
	Raw string

	AnsweredAt time.Time
	UpdatedAt  time.Time
}

// Transaction is one row of the append-only coin ledger. Rows are never
// updated; the balance is always the sum of all amounts.
type Transaction struct {
	ID        string
	Amount    int64
	Type      string
	Metadata  RewardMetadata
	CreatedAt time.Time
}

// RewardMetadata is the structured metadata carried by question-answer
// reward transactions. Context is empty for the legacy onboarding-only
// reward type, which keyed rewards on the question alone.
type RewardMetadata struct {
	Context     string `json:"context,omitempty"`
	QuestionKey string `json:"questionKey,omitempty"`
}

// Reward transaction types. TypeQuestionAnswer carries both context and
// questionKey in its metadata; TypeOnboardingAnswer is the legacy
// onboarding-only variant keyed on questionKey alone.
const (
	TypeQuestionAnswer   = "QUESTION_ANSWER"
	TypeOnboardingAnswer = "ONBOARDING_ANSWER"
	TypeBonus            = "BONUS"
	TypePurchase         = "PURCHASE"
)
