// Package harness provides conformance testing for question flows.
//
// The harness loads a question pack, seeds it into a fresh in-memory
// database, mounts a flow session, and drives it through a scripted
// sequence of user actions, validating assertions against the session
// and the persisted state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	pack: packs/onboarding
//	reward_amount: 10
//	steps:
//	  - answer: { question: addiction_type, value: "Vape" }
//	  - next: true
//	  - back: true
//	  - finish: true
//	assertions:
//	  - type: applicable
//	    keys: [name, addiction_type, pod_duration]
//	  - type: cache_contains
//	    question: addiction_type
//	    value: "Vape"
//	  - type: persisted
//	    question: addiction_type
//	    raw: "Vape"
//	  - type: coins
//	    amount: 20
//
// # Assertion Types
//
//   - applicable: the resolved applicable keys, in order
//   - answered_count: how many applicable questions have a live answer
//   - cache_contains: a question's live in-memory answer
//   - cache_missing: a question has no live answer
//   - persisted: a question's stored raw answer
//   - not_persisted: a question has no stored answer
//   - coins: coins earned during the session
//   - balance: the total ledger balance
//   - state: the session lifecycle state
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory SQLite database with a
// ticking test clock, so transcripts are byte-identical across runs and
// suitable for golden file comparison.
package harness
