package store

import (
	"context"
	"testing"
	"time"

	"quitflow/internal/question"
)

func fixedNow(t *testing.T, s *Store) *time.Time {
	t.Helper()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.SetNowFunc(func() time.Time { return now })
	return &now
}

func TestUpsertAnswer_InsertThenUpdate(t *testing.T) {
	s := openTestStore(t)
	now := fixedNow(t, s)
	ctx := context.Background()

	if err := s.UpsertAnswer(ctx, "onboarding", "name", "Ana"); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Advance the clock, overwrite the same key
	*now = now.Add(time.Hour)
	if err := s.UpsertAnswer(ctx, "onboarding", "name", "Beatriz"); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	answers, err := s.ListAnswers(ctx, "onboarding")
	if err != nil {
		t.Fatalf("ListAnswers failed: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("got %d answers, want 1", len(answers))
	}

	a := answers[0]
	if a.Raw != "Beatriz" {
		t.Errorf("answer = %q, want %q", a.Raw, "Beatriz")
	}
	if a.UserID != "local" {
		t.Errorf("user_id = %q, want %q", a.UserID, "local")
	}
	if !a.UpdatedAt.After(a.AnsweredAt) {
		t.Errorf("updated_at %v should be after answered_at %v", a.UpdatedAt, a.AnsweredAt)
	}
}

func TestUpsertAnswer_ContextsAreIsolated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertAnswer(ctx, "onboarding", "mood", "good"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := s.UpsertAnswer(ctx, "daily_checkin", "mood", "bad"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	onboarding, err := s.ListAnswers(ctx, "onboarding")
	if err != nil {
		t.Fatalf("ListAnswers failed: %v", err)
	}
	checkin, err := s.ListAnswers(ctx, "daily_checkin")
	if err != nil {
		t.Fatalf("ListAnswers failed: %v", err)
	}

	if len(onboarding) != 1 || onboarding[0].Raw != "good" {
		t.Errorf("onboarding answers = %+v, want single 'good'", onboarding)
	}
	if len(checkin) != 1 || checkin[0].Raw != "bad" {
		t.Errorf("daily_checkin answers = %+v, want single 'bad'", checkin)
	}
}

func TestListAnswers_EmptyContext(t *testing.T) {
	s := openTestStore(t)

	answers, err := s.ListAnswers(context.Background(), "onboarding")
	if err != nil {
		t.Fatalf("ListAnswers failed: %v", err)
	}
	if answers == nil {
		t.Error("ListAnswers returned nil, want empty slice")
	}
	if len(answers) != 0 {
		t.Errorf("got %d answers, want 0", len(answers))
	}
}

func TestDeleteAnswer_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertAnswer(ctx, "onboarding", "name", "Ana"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := s.DeleteAnswer(ctx, "onboarding", "name"); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	// Deleting an absent row is not an error
	if err := s.DeleteAnswer(ctx, "onboarding", "name"); err != nil {
		t.Errorf("second delete should be a no-op: %v", err)
	}

	answers, err := s.ListAnswers(ctx, "onboarding")
	if err != nil {
		t.Fatalf("ListAnswers failed: %v", err)
	}
	if len(answers) != 0 {
		t.Errorf("got %d answers after delete, want 0", len(answers))
	}
}

func TestDeleteAnswers_Batch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c", "d"} {
		if err := s.UpsertAnswer(ctx, "onboarding", key, "x"); err != nil {
			t.Fatalf("upsert %s failed: %v", key, err)
		}
	}

	if err := s.DeleteAnswers(ctx, "onboarding", "b", "d", "missing"); err != nil {
		t.Fatalf("DeleteAnswers failed: %v", err)
	}

	answers, err := s.ListAnswers(ctx, "onboarding")
	if err != nil {
		t.Fatalf("ListAnswers failed: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("got %d answers, want 2", len(answers))
	}
	if answers[0].QuestionKey != "a" || answers[1].QuestionKey != "c" {
		t.Errorf("surviving keys = %q, %q; want a, c", answers[0].QuestionKey, answers[1].QuestionKey)
	}
}

func TestDeleteAnswers_NoKeys(t *testing.T) {
	s := openTestStore(t)

	if err := s.DeleteAnswers(context.Background(), "onboarding"); err != nil {
		t.Errorf("DeleteAnswers with no keys should be a no-op: %v", err)
	}
}

func TestDeleteAllAnswers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		if err := s.UpsertAnswer(ctx, "onboarding", key, "x"); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}
	if err := s.UpsertAnswer(ctx, "daily_checkin", "a", "y"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := s.DeleteAllAnswers(ctx, "onboarding"); err != nil {
		t.Fatalf("DeleteAllAnswers failed: %v", err)
	}

	onboarding, _ := s.ListAnswers(ctx, "onboarding")
	checkin, _ := s.ListAnswers(ctx, "daily_checkin")
	if len(onboarding) != 0 {
		t.Errorf("onboarding answers survived wipe: %+v", onboarding)
	}
	if len(checkin) != 1 {
		t.Errorf("daily_checkin wiped too: %+v", checkin)
	}
}

func TestSeedQuestions_UpsertAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	qs := []question.Question{
		{Key: "addiction_type", Context: "onboarding", Order: 2, Kind: question.KindSingleChoice, Text: "What do you smoke?", Choices: []string{"Cigarro", "Vape"}},
		{Key: "name", Context: "onboarding", Order: 1, Kind: question.KindText, Text: "What is your name?", Required: true},
		{Key: "pod_duration", Context: "onboarding", Order: 3, Kind: question.KindNumber, Text: "Days per pod?", DependsOnKey: "addiction_type", DependsOnValue: "Vape"},
	}

	if err := s.SeedQuestions(ctx, qs); err != nil {
		t.Fatalf("SeedQuestions failed: %v", err)
	}

	got, err := s.ListQuestions(ctx, "onboarding")
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d questions, want 3", len(got))
	}

	// Ordered by ord ASC
	if got[0].Key != "name" || got[1].Key != "addiction_type" || got[2].Key != "pod_duration" {
		t.Errorf("order = %s, %s, %s; want name, addiction_type, pod_duration",
			got[0].Key, got[1].Key, got[2].Key)
	}

	// Choice metadata round-trips
	if len(got[1].Choices) != 2 || got[1].Choices[0] != "Cigarro" {
		t.Errorf("choices = %v, want [Cigarro Vape]", got[1].Choices)
	}

	// Dependency columns round-trip
	if got[2].DependsOnKey != "addiction_type" || got[2].DependsOnValue != "Vape" {
		t.Errorf("dependency = %q/%q, want addiction_type/Vape", got[2].DependsOnKey, got[2].DependsOnValue)
	}

	// Reseeding updates in place, no duplicates
	qs[1].Text = "Tell us your name"
	if err := s.SeedQuestions(ctx, qs); err != nil {
		t.Fatalf("reseed failed: %v", err)
	}
	got, err = s.ListQuestions(ctx, "onboarding")
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d questions after reseed, want 3", len(got))
	}
	if got[0].Text != "Tell us your name" {
		t.Errorf("question text = %q, want updated text", got[0].Text)
	}
}

func TestCountQuestions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.CountQuestions(ctx, "onboarding")
	if err != nil {
		t.Fatalf("CountQuestions failed: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}

	if err := s.SeedQuestions(ctx, []question.Question{
		{Key: "name", Context: "onboarding", Order: 1, Kind: question.KindText},
	}); err != nil {
		t.Fatalf("SeedQuestions failed: %v", err)
	}

	n, err = s.CountQuestions(ctx, "onboarding")
	if err != nil {
		t.Fatalf("CountQuestions failed: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
