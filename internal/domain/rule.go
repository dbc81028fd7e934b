package domain

// CustomRule defines an operator-supplied scoring rule evaluated by the
// CEL engine alongside the built-in detectors. The expression must return
// a boolean; when it evaluates true, Delta points and Flag are added to
// the transaction's findings before the industry multiplier is applied.
type CustomRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	// Expression is a CEL expression over transaction fields, e.g.
	// `amount > 2500.0 && payment_method == "gift_card"`.
	Expression string `json:"expression"`

	// Delta is the score contribution when the expression is true.
	Delta int `json:"delta"`

	// Flag is the anomaly text recorded when the rule triggers.
	Flag string `json:"flag"`

	// VelocityWindowSecs, when positive, makes the cross-batch
	// velocity_count variable available over this window.
	VelocityWindowSecs int `json:"velocityWindowSecs,omitempty"`

	// Whether rule is active
	Enabled bool `json:"enabled"`
}
