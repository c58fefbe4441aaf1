// Package cotask provides a cooperative, single-goroutine task scheduler
// for fixed-period control and estimation routines.
package cotask

// A Task wraps a Routine which runs one step at a time and returns to the
// Scheduler at its next suspend point. Each dispatch pass of the Scheduler
// resumes at most one ready Task: the one with the highest priority, taking
// equal priorities in turn. There is no preemption. A step always runs to
// completion, and a Routine which never returns stalls every other Task.
//
// Periodic Tasks are rescheduled with a fixed phase, so the next run is
// due one period after the previous due time rather than after the
// previous actual start. Lateness is measured and reported but never
// enforced.
//
// A Routine which returns an error (or panics) faults its Task. The Task is
// never resumed again; the fault is kept on the Task, logged and reported
// to the fault hook, and the remaining Tasks keep running.
