// Package question defines the domain model for the question flow engine:
// question definitions, the closed set of question kinds, and the sealed
// Value type that represents a stored answer.
//
// Questions are seeded once and read-only at runtime. Each question may
// declare a dependency on another question's current answer; the flow
// package resolves which questions are applicable from those edges.
package question
