package assembly

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Context owns the per-call accumulator sinks every builder reports into:
// warnings, errors, and fields needing human review. One Context belongs to
// exactly one assembly call; nothing in it is shared across calls.
type Context struct {
	warnings    []string
	errors      []string
	needsReview map[string]string

	now   func() time.Time
	newID func() string
}

// NewContext constructs a context with wall-clock time and UUID identifiers.
func NewContext() *Context {
	return &Context{
		needsReview: map[string]string{},
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// Warnf records a non-fatal issue.
func (c *Context) Warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// Errorf records a failure that voided one record.
func (c *Context) Errorf(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

// Review flags a field whose value rests on an assumption a human or
// secondary process should confirm.
func (c *Context) Review(field, reason string) {
	c.needsReview[field] = reason
}
