// Package triage scores email threads and suggests what to do with them.
//
// The scoring functions (AssessUrgency, AssessImportance, TierFor,
// ClassifyAction, SuggestResponseTime, CalculatePriority and friends) are pure
// and deterministic: every weight and threshold is a constant in this package
// and the caller supplies the current time. Engine wraps them with tracing,
// logging and metrics hooks; Service adds dedup, persistence through Store and
// notification.
package triage
