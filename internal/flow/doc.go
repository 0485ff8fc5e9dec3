// Package flow implements the question flow engine: the pure applicability
// resolver over the question dependency graph, and the session Controller
// that applies answers (persist, reward, cascade), tracks the navigation
// position, and exposes derived view state.
//
// A Controller owns one in-memory answer cache per mounted session. The
// cache is the working set; the store is durable. Hydration from the store
// runs exactly once per Controller so a refreshed answers source can never
// reset an in-progress session.
package flow
