package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quitflow/internal/question"
)

// ListAnswers returns all persisted answers for a flow context, ordered by
// question_key for deterministic hydration.
//
// Returns an empty slice (not nil) if the context has no answers.
func (s *Store) ListAnswers(ctx context.Context, flowContext string) ([]question.Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, context, question_key, user_id, answer, answered_at, updated_at
		FROM question_answers
		WHERE context = ?
		ORDER BY question_key ASC
	`, flowContext)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var answers []question.Answer
	for rows.Next() {
		var (
			a          question.Answer
			answeredAt string
			updatedAt  string
		)
		if err := rows.Scan(&a.ID, &a.Context, &a.QuestionKey, &a.UserID, &a.Raw, &answeredAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, answeredAt); err == nil {
			a.AnsweredAt = ts
		}
		if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			a.UpdatedAt = ts
		}
		answers = append(answers, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}

	if answers == nil {
		answers = []question.Answer{}
	}

	return answers, nil
}

// UpsertAnswer inserts or overwrites the answer row for (context, key).
// answered_at is set once on first insert; updated_at refreshes on every
// write.
func (s *Store) UpsertAnswer(ctx context.Context, flowContext, key, raw string) error {
	now := s.timestamp()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO question_answers
		(id, context, question_key, user_id, answer, answered_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(context, question_key) DO UPDATE SET
			answer = excluded.answer,
			updated_at = excluded.updated_at
	`,
		uuid.NewString(),
		flowContext,
		key,
		localUserID,
		raw,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert answer %s/%s: %w", flowContext, key, err)
	}

	return nil
}

// DeleteAnswer removes the answer row for (context, key).
// Idempotent - deleting an absent row is not an error.
func (s *Store) DeleteAnswer(ctx context.Context, flowContext, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM question_answers
		WHERE context = ? AND question_key = ?
	`, flowContext, key)
	if err != nil {
		return fmt.Errorf("delete answer %s/%s: %w", flowContext, key, err)
	}
	return nil
}

// DeleteAnswers removes the answer rows for a set of keys in one statement.
// Used by the cascade when a branching answer changes. Idempotent.
func (s *Store) DeleteAnswers(ctx context.Context, flowContext string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	// Build placeholder string for IN clause
	placeholders := make([]byte, 0, len(keys)*2-1)
	args := make([]any, 0, len(keys)+1)
	args = append(args, flowContext)
	for i, key := range keys {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, key)
	}

	query := `
		DELETE FROM question_answers
		WHERE context = ? AND question_key IN (` + string(placeholders) + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete answers for %s: %w", flowContext, err)
	}

	return nil
}

// DeleteAllAnswers wipes every answer for a flow context. Used by reset
// flows.
func (s *Store) DeleteAllAnswers(ctx context.Context, flowContext string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM question_answers WHERE context = ?
	`, flowContext)
	if err != nil {
		return fmt.Errorf("delete all answers for %s: %w", flowContext, err)
	}
	return nil
}
