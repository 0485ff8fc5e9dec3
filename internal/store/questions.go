package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"quitflow/internal/question"
)

// questionMetadata is the JSON shape of the questions.metadata column.
// Only choice kinds populate it.
type questionMetadata struct {
	Choices []string `json:"choices,omitempty"`
}

// SeedQuestions inserts or updates question definitions.
// Upserts on (context, key): definition fields are refreshed, created_at of
// an existing row is preserved. Runs in a single transaction so a pack is
// seeded completely or not at all.
func (s *Store) SeedQuestions(ctx context.Context, questions []question.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed questions: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, q := range questions {
		metaJSON, err := marshalQuestionMetadata(q)
		if err != nil {
			return fmt.Errorf("seed questions: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions
			(key, context, ord, kind, category, question_text, required,
			 depends_on_question_key, depends_on_value, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(context, key) DO UPDATE SET
				ord = excluded.ord,
				kind = excluded.kind,
				category = excluded.category,
				question_text = excluded.question_text,
				required = excluded.required,
				depends_on_question_key = excluded.depends_on_question_key,
				depends_on_value = excluded.depends_on_value,
				metadata = excluded.metadata
		`,
			q.Key,
			q.Context,
			q.Order,
			string(q.Kind),
			q.Category,
			q.Text,
			q.Required,
			nullable(q.DependsOnKey),
			nullable(q.DependsOnValue),
			metaJSON,
			s.timestamp(),
		)
		if err != nil {
			return fmt.Errorf("seed question %s/%s: %w", q.Context, q.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed questions: commit: %w", err)
	}

	return nil
}

// ListQuestions returns all question definitions for a flow context,
// ordered by presentation sequence (ord ASC, key ASC as the stable
// tiebreak).
//
// Returns an empty slice (not nil) if the context has no questions.
func (s *Store) ListQuestions(ctx context.Context, flowContext string) ([]question.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, context, ord, kind, category, question_text, required,
		       depends_on_question_key, depends_on_value, metadata, created_at
		FROM questions
		WHERE context = ?
		ORDER BY ord ASC, key ASC
	`, flowContext)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []question.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	if questions == nil {
		questions = []question.Question{}
	}

	return questions, nil
}

// CountQuestions returns the number of seeded questions for a context.
func (s *Store) CountQuestions(ctx context.Context, flowContext string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE context = ?`, flowContext,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

// scanQuestion scans a row into a Question.
func scanQuestion(rows *sql.Rows) (question.Question, error) {
	var (
		q          question.Question
		kind       string
		dependsOn  sql.NullString
		dependsVal sql.NullString
		metaJSON   string
		createdAt  string
	)

	if err := rows.Scan(
		&q.Key, &q.Context, &q.Order, &kind, &q.Category, &q.Text, &q.Required,
		&dependsOn, &dependsVal, &metaJSON, &createdAt,
	); err != nil {
		return question.Question{}, fmt.Errorf("scan question: %w", err)
	}

	// Unknown kinds from schema drift are passed through; the resolver
	// treats them like any other question and the UI layer decides.
	q.Kind = question.Kind(kind)
	q.DependsOnKey = dependsOn.String
	q.DependsOnValue = dependsVal.String

	var meta questionMetadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return question.Question{}, fmt.Errorf("unmarshal question metadata for %s: %w", q.Key, err)
	}
	q.Choices = meta.Choices

	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		q.CreatedAt = ts
	}

	return q, nil
}

// marshalQuestionMetadata renders the metadata JSON column for a question.
func marshalQuestionMetadata(q question.Question) (string, error) {
	meta := questionMetadata{Choices: q.Choices}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal question metadata for %s: %w", q.Key, err)
	}
	return string(b), nil
}

// nullable maps the empty string to SQL NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
