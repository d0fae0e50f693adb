// Package supervisor manages the lifecycle of a single cask server process
// across independent CLI invocations.
//
// State shared between invocations lives in two files under the data
// directory:
//
//   - cask.pid: the PID registry, a decimal process identifier
//   - cask.log: the append-only log the detached server writes to
//
// The registry is only a hint. Every operation follows the same sequence:
// read the registry, probe the recorded process with a null signal, and only
// then act. A registry that names a dead process is stale and is cleared by
// whichever command notices first. A registry that cannot be parsed is
// corrupt and is left in place for the operator to inspect.
//
// There is no locking between invocations. Two concurrent start or stop
// commands against the same data directory race, and the one that completes
// its read/probe/act sequence first wins.
package supervisor
