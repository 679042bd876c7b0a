// Package supervise runs a child process under a fixed time window and
// reports exactly one outcome for it.
//
// Runner starts the child in its own process group, races the child's exit
// against the window deadline, and resolves the race to either an Exited
// outcome carrying the child's exit code or a TimedOut outcome meaning the
// child was still alive when the window elapsed. The package also houses the
// signal name parsing shared by the CLI surface and its configuration.
package supervise
