package schema

import "fmt"

// SchemaMismatchError reports a type tree that violates a structural
// assumption of the normalizer, such as a map keyed by a nested type.
type SchemaMismatchError struct {
	Path   string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Path == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: %s: %s", e.Path, e.Reason)
}

func mismatch(path, format string, args ...any) error {
	return &SchemaMismatchError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
