package terms

import "fmt"

// LoadError represents a term configuration that could not be read, validated or compiled.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("term config %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("term config %s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
