package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// Label values must come from a small, fixed set. Anything derived from
// tool input is normalized here before it reaches a metric.

// Operations on the events table.
const (
	OperationInDuration = "in_duration"
	OperationByType     = "by_type"
)

// maxLabelLength caps free-text label values.
const maxLabelLength = 32

// OperationLabel returns op if it is a known operation and "unknown" otherwise.
//
// Example:
//
//	OperationLabel("by_type")   // "by_type"
//	OperationLabel("drop")      // "unknown"
func OperationLabel(op string) string {
	switch op {
	case OperationInDuration, OperationByType:
		return op
	}
	return StatusUnknown
}

// EventTypeLabel lowercases and truncates an event type so it can be used
// as a metric label when detailed labels are enabled.
//
// Example:
//
//	EventTypeLabel(" EXAM ")  // "exam"
//	EventTypeLabel("")        // "unknown"
func EventTypeLabel(eventType string) string {
	label := strings.ToLower(strings.TrimSpace(eventType))
	if label == "" {
		return StatusUnknown
	}
	if runes := []rune(label); len(runes) > maxLabelLength {
		label = string(runes[:maxLabelLength])
	}
	return label
}
