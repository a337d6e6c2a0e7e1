// Package script gives the abstract stage.Transformer one concrete,
// user-scriptable implementation: a JavaScript snippet evaluated by
// github.com/dop251/goja, a pure-Go engine, matching the teacher's choice
// for its scripting-capable providers (internal/providers/browser/sandbox).
package script
