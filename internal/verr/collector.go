// Package verr accumulates errors and warnings while validating or
// expanding a route, without using Go errors or panics to do it —
// callers get back every problem found in one pass instead of only
// the first.
package verr

import (
	"fmt"
	"strings"
)

// Collector tracks a push/pop context stack (e.g. "token 3", "airway
// J146") alongside accumulated error and warning strings, per the
// taxonomy in spec.md 7.
type Collector struct {
	hierarchy []string
	errors    []string
	warnings  []string
}

func (c *Collector) Push(s string) {
	c.hierarchy = append(c.hierarchy, s)
}

func (c *Collector) Pop() {
	c.hierarchy = c.hierarchy[:len(c.hierarchy)-1]
}

func (c *Collector) context() string {
	if len(c.hierarchy) == 0 {
		return ""
	}
	return strings.Join(c.hierarchy, " / ") + ": "
}

func (c *Collector) Errorf(format string, args ...any) {
	c.errors = append(c.errors, c.context()+fmt.Sprintf(format, args...))
}

func (c *Collector) Warnf(format string, args ...any) {
	c.warnings = append(c.warnings, c.context()+fmt.Sprintf(format, args...))
}

func (c *Collector) HasErrors() bool { return len(c.errors) > 0 }

func (c *Collector) Errors() []string { return c.errors }

func (c *Collector) Warnings() []string { return c.warnings }

func (c *Collector) String() string {
	return strings.Join(append(append([]string{}, c.errors...), c.warnings...), "\n")
}
