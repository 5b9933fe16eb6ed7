package common

import (
	"fmt"
	"sort"
	"strings"
)

const (
	MsgTooShort        = "Value is too short"
	MsgTooLong         = "Value is too long"
	MsgDuplicateInList = "This item has been duplicated within the group"
	MsgNameDiffExists  = "Name and differentiator combination already exists"
	MsgSelfAssociation = "Instance cannot form association with itself"
	MsgDoesNotExist    = "does not exist"
)

// FieldErrors maps a field path in dot/index notation (for example
// "writingCredits.0.entities.1.name") to its messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(path, msg string) {
	for _, existing := range e[path] {
		if existing == msg {
			return
		}
	}
	e[path] = append(e[path], msg)
}

func (e FieldErrors) Merge(other FieldErrors) {
	for path, msgs := range other {
		for _, msg := range msgs {
			e.Add(path, msg)
		}
	}
}

func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Paths returns the error paths in sorted order.
func (e FieldErrors) Paths() []string {
	out := make([]string, 0, len(e))
	for p := range e {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (e FieldErrors) String() string {
	var b strings.Builder
	for i, p := range e.Paths() {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", p, strings.Join(e[p], ", "))
	}
	return b.String()
}

// Path joins field names and list indexes into dot/index notation.
func Path(parts ...any) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			if v != "" {
				segs = append(segs, v)
			}
		case int:
			segs = append(segs, fmt.Sprintf("%d", v))
		default:
			segs = append(segs, fmt.Sprint(v))
		}
	}
	return strings.Join(segs, ".")
}
