// Package sched provides the deferred-action dispatcher at the bottom of
// the controller: fixed-capacity, time-ordered, run-to-completion tasks
// on a single goroutine, with two priority tiers and single-use
// cancellation handles.
//
// Waiting is always expressed as "schedule a continuation at a future
// instant", never as a suspended call; tasks receive the instant they
// were scheduled for so chains of deferrals ("beep, then after it stops,
// beep again") compound exactly.
package sched
