// Package pipeline implements PipelineEngine: the orchestrator that plans
// descriptors, spawns children, drives the non-blocking multiplex loop
// between every endpoint and stage, and reaps exit statuses.
//
// An Engine is configured (Input/Output/Stages), run exactly once via Run,
// then inspected via ExitCode/ExitSignal/AllExitZero. Re-running the same
// Engine is not supported — Run panics on a second call, matching the
// lifecycle spec.md describes: construct, configure, run once, inspect.
package pipeline
