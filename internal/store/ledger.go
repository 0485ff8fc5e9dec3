package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quitflow/internal/question"
)

// AppendTransaction appends a row to the coin ledger unconditionally.
//
// Rows are never updated. For question-answer reward types the ledger
// carries a uniqueness index over the metadata identity, so a duplicate
// reward append fails with a constraint error; callers wanting
// first-writer-wins semantics use AwardQuestionRewardOnce instead.
func (s *Store) AppendTransaction(ctx context.Context, amount int64, typ string, meta question.RewardMetadata) (question.Transaction, error) {
	metaJSON, err := marshalRewardMetadata(meta)
	if err != nil {
		return question.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	tx := question.Transaction{
		ID:        uuid.NewString(),
		Amount:    amount,
		Type:      typ,
		Metadata:  meta,
		CreatedAt: s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO coin_transactions (id, amount, type, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		tx.ID,
		tx.Amount,
		tx.Type,
		metaJSON,
		tx.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return question.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	return tx, nil
}

// HasQuestionReward reports whether a reward transaction already exists for
// (type, context, questionKey). The legacy onboarding reward type matches
// on questionKey alone - its metadata never carried a context.
func (s *Store) HasQuestionReward(ctx context.Context, typ, flowContext, key string) (bool, error) {
	var (
		count int
		err   error
	)

	if typ == question.TypeOnboardingAnswer {
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM coin_transactions
			WHERE type = ?
			AND json_extract(metadata, '$.questionKey') = ?
		`, typ, key).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM coin_transactions
			WHERE type = ?
			AND json_extract(metadata, '$.context') = ?
			AND json_extract(metadata, '$.questionKey') = ?
		`, typ, flowContext, key).Scan(&count)
	}
	if err != nil {
		return false, fmt.Errorf("check reward: %w", err)
	}

	return count > 0, nil
}

// AwardQuestionRewardOnce appends a reward row if no reward exists yet for
// the metadata identity. Returns the transaction and whether a new row was
// inserted.
//
// The insert-or-ignore claims the uniqueness slot atomically inside one
// transaction, which closes the check-then-act race between overlapping
// answer submissions: exactly one caller observes inserted=true.
func (s *Store) AwardQuestionRewardOnce(ctx context.Context, amount int64, typ string, meta question.RewardMetadata) (question.Transaction, bool, error) {
	metaJSON, err := marshalRewardMetadata(meta)
	if err != nil {
		return question.Transaction{}, false, fmt.Errorf("award reward: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return question.Transaction{}, false, fmt.Errorf("award reward: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	row := question.Transaction{
		ID:        uuid.NewString(),
		Amount:    amount,
		Type:      typ,
		Metadata:  meta,
		CreatedAt: s.now().UTC(),
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO coin_transactions (id, amount, type, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		row.ID,
		row.Amount,
		row.Type,
		metaJSON,
		row.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return question.Transaction{}, false, fmt.Errorf("award reward: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return question.Transaction{}, false, fmt.Errorf("award reward: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Conflict - a reward row already exists for this identity
		if err := tx.Commit(); err != nil {
			return question.Transaction{}, false, fmt.Errorf("award reward: commit (existing): %w", err)
		}
		return question.Transaction{}, false, nil
	}

	if err := tx.Commit(); err != nil {
		return question.Transaction{}, false, fmt.Errorf("award reward: commit: %w", err)
	}

	return row, true, nil
}

// Balance returns the sum of all ledger amounts. The balance is always
// derived, never stored; an empty ledger sums to zero.
func (s *Store) Balance(ctx context.Context) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM coin_transactions
	`).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum balance: %w", err)
	}
	return balance, nil
}

// ListTransactions returns the most recent ledger rows, newest first.
// A limit of 0 or less returns all rows.
func (s *Store) ListTransactions(ctx context.Context, limit int) ([]question.Transaction, error) {
	query := `
		SELECT id, amount, type, metadata, created_at
		FROM coin_transactions
		ORDER BY created_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []question.Transaction
	for rows.Next() {
		var (
			t         question.Transaction
			metaJSON  string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.Amount, &t.Type, &metaJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal transaction metadata: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			t.CreatedAt = ts
		}
		txns = append(txns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	if txns == nil {
		txns = []question.Transaction{}
	}

	return txns, nil
}

// ResetLedger deletes every ledger row. The only mutation the ledger
// permits besides append.
func (s *Store) ResetLedger(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM coin_transactions`); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return nil
}

// marshalRewardMetadata renders the metadata JSON column for a transaction.
func marshalRewardMetadata(meta question.RewardMetadata) (string, error) {
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal reward metadata: %w", err)
	}
	return string(b), nil
}
