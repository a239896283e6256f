package health

// Checker is implemented by anything that can report whether it is healthy.
// Check returns nil when healthy and a descriptive error otherwise.
type Checker interface {
	Check() error
}
