// Package pipeline executes the steps of one crawl job in sequence with
// durable checkpointing.
//
// A job runs through five named steps: mark-running, execute-crawl,
// save-pages, select-pages and mark-completed. Every step except
// execute-crawl writes a completion marker after its side effects; on
// restart the runner skips marked steps, so each side effect happens at
// most once per job. The crawl itself is never memoized because its result
// lives only in memory: a crash between the crawl and save-pages rewinds
// the whole crawl on the next attempt.
//
// Design decision: steps are an interface rather than function values so
// each step carries its own dependencies and a Name used for both logging
// and the durable marker.
package pipeline
