// Package packs loads question packs: CUE files declaring the questions
// of one flow context. Loading compiles each declared question into a
// question.Question; Validate then checks the pack's dependency graph
// before it is seeded into the store.
package packs
