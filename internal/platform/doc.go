// Package platform abstracts the POSIX primitives the pipeline engine needs:
// pipe creation, child spawning with fd mapping, readiness multiplexing via
// select(2), non-blocking read/write, and reaping via wait4(2).
//
// Ops is the capability interface the engine programs against; POSIX is the
// concrete implementation built on golang.org/x/sys/unix and syscall.ForkExec.
// Pipes are always created with O_CLOEXEC, so a stage's child only ever
// inherits the descriptors explicitly dup'd onto its stdin/stdout — every
// other pipe end the parent holds closes itself on exec without the engine
// needing to enumerate and close a close_fds set by hand.
package platform
