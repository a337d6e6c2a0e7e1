// Package ptyexec spawns an exec stage behind a pseudo-terminal instead of
// plain pipes, for programs that behave differently when stdin/stdout are
// not a tty (interactive REPLs, isatty-sensitive CLIs). It is grounded on
// the same github.com/creack/pty primitives as a terminal session manager,
// generalized to hand its master descriptor to a pipeline stage rather
// than to a live terminal UI.
package ptyexec
