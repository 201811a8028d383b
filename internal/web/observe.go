package web

import (
	"github.com/fpang/neuroscan-edit/internal/metrics"
	"github.com/fpang/neuroscan-edit/internal/session"
)

// TransitionMetrics is a session.Observer that counts status changes by
// target state.
func TransitionMetrics(t session.Transition) {
	metrics.New(metrics.Namespace).
		Dimension("From", string(t.From)).
		Dimension("To", string(t.To)).
		Count("SessionTransition").
		Flush()
}
