// Package executor provides a bounded worker pool for per-course report
// aggregation.
//
// One task is submitted per course and executed by a fixed number of
// workers. Workers pull tasks FIFO; completion order is unordered and
// results are returned indexed by submission order. Task failures are
// captured in the Result rather than aborting the run.
package executor
