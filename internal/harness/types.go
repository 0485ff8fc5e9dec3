package harness

// TranscriptEvent records one step of a scenario execution together with
// the session view right after the step. Field order is stable for golden
// comparison.
type TranscriptEvent struct {
	Step       int      `json:"step"`
	Type       string   `json:"type"` // "answer", "next", "back", "finish"
	Question   string   `json:"question,omitempty"`
	Value      string   `json:"value,omitempty"` // encoded form
	Error      string   `json:"error,omitempty"`
	Index      int      `json:"index"`
	Applicable []string `json:"applicable"`
	Answered   int      `json:"answered"`
	Coins      int64    `json:"coins"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Transcript contains one event per executed step, in order.
	Transcript []TranscriptEvent `json:"transcript"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Transcript: []TranscriptEvent{},
		Errors:     []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
