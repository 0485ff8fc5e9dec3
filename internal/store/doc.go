// Package store provides durable SQLite storage for the question flow
// engine: seeded question definitions, the live answer set with upsert
// semantics, and the append-only coin transaction ledger.
//
// The database is opened in WAL mode with a single writer connection.
// Reward idempotency is enforced in the schema: a unique index over the
// reward metadata identity makes AwardQuestionRewardOnce a first-writer-wins
// insert.
package store
