package requirement

// Status describes whether a requirement is currently satisfied.
// It is created fresh each time a provider checks and is never mutated
// after construction.
type Status struct {
	satisfied  bool
	conclusive bool
	cancelled  bool
	detail     string
	errors     []string
}

// Satisfied creates a conclusive satisfied status.
func Satisfied(detail string) Status {
	return Status{satisfied: true, conclusive: true, detail: detail}
}

// Unsatisfied creates a conclusive unsatisfied status. The detail explains
// what is missing; errs carries failure descriptions if any.
func Unsatisfied(detail string, errs ...string) Status {
	return Status{conclusive: true, detail: detail, errors: errs}
}

// Unknown creates an inconclusive status. The registry falls through to
// the next matching provider when it sees one.
func Unknown(detail string) Status {
	return Status{detail: detail}
}

// Cancelled creates a status reporting that the provider abandoned an
// in-flight operation due to context cancellation.
func Cancelled(detail string) Status {
	return Status{conclusive: true, cancelled: true, detail: detail}
}

// IsSatisfied returns true if the requirement is currently met.
func (s Status) IsSatisfied() bool {
	return s.satisfied
}

// Conclusive returns false if the provider could not determine the state.
func (s Status) Conclusive() bool {
	return s.conclusive
}

// IsCancelled returns true if the check or provision was cancelled.
func (s Status) IsCancelled() bool {
	return s.cancelled
}

// Detail returns the human-readable explanation.
func (s Status) Detail() string {
	return s.detail
}

// Errors returns the ordered failure descriptions (empty on success).
func (s Status) Errors() []string {
	out := make([]string, len(s.errors))
	copy(out, s.errors)
	return out
}

// HasErrors returns true if any failure descriptions were recorded.
func (s Status) HasErrors() bool {
	return len(s.errors) > 0
}
