// Package pipeline runs the match engine over every screenshot of an
// observation document.
//
// Coordinator.Run starts a fixed pool of workers. Each worker receives the
// shared battles.Index and matching.Engine once, at spawn, and processes whole
// videos as tasks. Results land in a slice indexed by submission position, so
// output order equals input order regardless of completion order. A failing
// or panicking task is isolated: it is logged with its video id and the video
// contributes nothing to the batch.
package pipeline
