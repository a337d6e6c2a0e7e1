// Package stage defines the kinds of pipeline stage — an external process
// (ExecStage, optionally PTY-backed) and an in-process transformer
// (FunctionStage) — and
// Table, the ordered, builder-style accumulator PipelineEngine plans from.
//
// A stage never owns more than one of {pid, transformer}: the two kinds are
// mutually exclusive and the engine asserts on the rest of the contract
// (argv defaulting, the write-into-own-outbuf wiring) when a stage is
// appended, not when it later runs.
package stage
