package schema

import (
	"fmt"
	"strings"
)

// MappingError means required fields could not be resolved. Analysis does
// not start until the user supplies overrides for them.
type MappingError struct {
	Missing []Field
	Headers []string
}

func (e *MappingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("MAPPING_INCOMPLETE: no column found for required field(s) %s; available headers: %s",
		strings.Join(names, ", "), strings.Join(e.Headers, ", "))
}
