package label

import "strings"

const (
	// RootMarker is the normalizing root, e.g. `//pkg:target`.
	RootMarker = "//"
	// ExactRootMarker is the literal root, e.g. `!/usr/lib:libz`.
	ExactRootMarker = "!/"
)

// Label is the resolved, canonical address of a target.
type Label struct {
	Repository string
	Package    string
	Target     string
	// Exact is set for labels written with the `!/` root.
	Exact bool
}

// String serializes the Label into its canonical text form. When the
// repository is set the result resolves back to the same Label in any
// context, which makes it suitable as a graph node identifier.
func (l Label) String() string {
	var sb strings.Builder
	if l.Repository != "" {
		sb.WriteRune('@')
		sb.WriteString(l.Repository)
	}
	if l.Exact {
		sb.WriteString(ExactRootMarker)
	} else {
		sb.WriteString(RootMarker)
	}
	sb.WriteString(l.Package)
	sb.WriteRune(':')
	sb.WriteString(l.Target)
	return sb.String()
}

// Equal reports whether two labels name the same target.
func (l Label) Equal(other Label) bool {
	return l == other
}

// Path joins package and target into a slash separated path relative to
// the repository root.
func (l Label) Path() string {
	if l.Package == "" {
		return l.Target
	}
	return l.Package + "/" + l.Target
}
