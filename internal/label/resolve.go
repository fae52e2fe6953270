package label

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	repositoryRegex = regexp.MustCompile(`^[A-Za-z0-9._+~-]+$`)
	packageRegex    = regexp.MustCompile(`^[A-Za-z0-9/._@+~-]+$`)
	targetRegex     = regexp.MustCompile(`^[A-Za-z0-9!%@^_#"$&'()*+,;<=>?\[\]{|}~/. -]+$`)
)

// Context is the location a label is written in.
type Context struct {
	Repository string
	Package    string
}

// Resolve resolves text relative to the context.
func (c Context) Resolve(text string) (Label, error) {
	return Resolve(text, c.Repository, c.Package)
}

// ResolveAll resolves every text relative to the context and stops at the
// first failure.
func (c Context) ResolveAll(texts []string) ([]Label, error) {
	labels := make([]Label, 0, len(texts))
	for _, text := range texts {
		l, err := c.Resolve(text)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// Resolve parses label text and fills omitted parts from the current
// repository and package. See the package documentation for the grammar.
//
// The returned error wraps ErrInvalidLabel or ErrMissingTarget and is a
// *ParseError carrying the offending text.
func Resolve(text, currentRepository, currentPackage string) (Label, error) {
	if text == "" {
		return Label{}, invalid(text, "empty label")
	}
	if !utf8.ValidString(text) {
		return Label{}, invalid(text, "label is not valid UTF-8")
	}

	rest := text
	l := Label{Repository: currentRepository}

	if strings.HasPrefix(rest, "@") {
		idx := rootIndex(rest)
		if idx < 0 {
			return Label{}, invalid(text, "repository must be followed by a root marker")
		}
		l.Repository = rest[1:idx]
		if !repositoryRegex.MatchString(l.Repository) {
			return Label{}, invalid(text, fmt.Sprintf("invalid repository name %q", l.Repository))
		}
		rest = rest[idx:]
	}

	root := ""
	switch {
	case strings.HasPrefix(rest, RootMarker):
		root = RootMarker
	case strings.HasPrefix(rest, ExactRootMarker):
		root = ExactRootMarker
	}
	rest = rest[len(root):]
	l.Exact = root == ExactRootMarker

	if strings.Count(rest, ":") > 1 {
		return Label{}, invalid(text, "more than one ':'")
	}
	pkgText, targetText, hasTarget := strings.Cut(rest, ":")
	if hasTarget {
		if targetText == "" {
			return Label{}, invalid(text, "empty target name after ':'")
		}
		if err := checkTarget(targetText); err != nil {
			return Label{}, invalid(text, err.Error())
		}
		l.Target = targetText
	}

	if root == "" && !hasTarget {
		// A bare word is a target in the current package.
		if err := checkTarget(rest); err != nil {
			return Label{}, invalid(text, err.Error())
		}
		pkg, err := normalize(currentPackage)
		if err != nil {
			return Label{}, invalid(text, "current package: "+err.Error())
		}
		l.Package = pkg
		l.Target = rest
		return l, nil
	}

	if pkgText != "" && !packageRegex.MatchString(pkgText) {
		return Label{}, invalid(text, fmt.Sprintf("invalid package path %q", pkgText))
	}

	var err error
	switch {
	case root != "" && pkgText == "" && !hasTarget:
		return Label{}, invalid(text, "label names neither a package nor a target")
	case l.Exact:
		l.Package = literal(pkgText)
	case root != "":
		l.Package, err = normalize(pkgText)
	default:
		// Relative to the current package: `:t` or `sub:t`.
		l.Package, err = normalize(join(currentPackage, pkgText))
	}
	if err != nil {
		return Label{}, invalid(text, err.Error())
	}

	if !hasTarget {
		if l.Package == "" {
			return Label{}, &ParseError{
				Text:   text,
				Reason: "package is the repository root, a target must be given explicitly",
				Err:    ErrMissingTarget,
			}
		}
		l.Target = lastSegment(l.Package)
	}
	return l, nil
}

// MustResolve is like Resolve but panics on error. Intended for fixed
// labels in code and tests.
func MustResolve(text, currentRepository, currentPackage string) Label {
	l, err := Resolve(text, currentRepository, currentPackage)
	if err != nil {
		panic(err)
	}
	return l
}

// checkTarget rejects target names that do not stay inside their package:
// a leading '/', or an empty, `.` or `..` segment.
func checkTarget(name string) error {
	if !targetRegex.MatchString(name) {
		return fmt.Errorf("invalid target name %q", name)
	}
	for _, segment := range strings.Split(name, "/") {
		switch segment {
		case "", ".", "..":
			return fmt.Errorf("target name %q must not contain empty, '.' or '..' segments", name)
		}
	}
	return nil
}

// rootIndex returns the position of the first root marker in s, or -1.
func rootIndex(s string) int {
	normalizing := strings.Index(s, RootMarker)
	exact := strings.Index(s, ExactRootMarker)
	switch {
	case normalizing < 0:
		return exact
	case exact < 0:
		return normalizing
	default:
		return min(normalizing, exact)
	}
}

// ValidRepository reports whether name may appear after '@' in a label.
func ValidRepository(name string) bool {
	return repositoryRegex.MatchString(name)
}
