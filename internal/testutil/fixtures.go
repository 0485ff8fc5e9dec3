// Package testutil provides deterministic helpers shared across test
// packages: a ticking clock for stable timestamps and canonical question
// fixtures.
package testutil

import "quitflow/internal/question"

// OnboardingQuestions returns the canonical onboarding fixture used
// throughout the tests: a branching single-choice question gates two
// mutually exclusive follow-ups.
func OnboardingQuestions(flowContext string) []question.Question {
	return []question.Question{
		{
			Key:      "name",
			Context:  flowContext,
			Order:    1,
			Kind:     question.KindText,
			Category: "profile",
			Text:     "Qual é o seu nome?",
			Required: true,
		},
		{
			Key:      "addiction_type",
			Context:  flowContext,
			Order:    2,
			Kind:     question.KindSingleChoice,
			Category: "habits",
			Text:     "O que você fuma?",
			Required: true,
			Choices:  []string{"Cigarro", "Vape", "Ambos"},
		},
		{
			Key:            "cigarettes_per_day",
			Context:        flowContext,
			Order:          3,
			Kind:           question.KindNumber,
			Category:       "habits",
			Text:           "Quantos cigarros você fuma por dia?",
			Required:       true,
			DependsOnKey:   "addiction_type",
			DependsOnValue: "Cigarro",
		},
		{
			Key:            "pod_duration",
			Context:        flowContext,
			Order:          4,
			Kind:           question.KindText,
			Category:       "habits",
			Text:           "Quanto tempo dura um pod?",
			Required:       true,
			DependsOnKey:   "addiction_type",
			DependsOnValue: "Vape",
		},
		{
			Key:      "years_smoking",
			Context:  flowContext,
			Order:    5,
			Kind:     question.KindNumber,
			Category: "habits",
			Text:     "Há quantos anos você fuma?",
			Required: true,
		},
		{
			Key:      "motivation",
			Context:  flowContext,
			Order:    6,
			Kind:     question.KindText,
			Category: "profile",
			Text:     "Por que você quer parar?",
			Required: true,
		},
	}
}
