package label

import (
	"errors"
	"strings"
)

var errEscapesRoot = errors.New("path escapes the repository root")

// normalize cleans a slash separated package path: empty and `.` segments
// are dropped and `..` removes the preceding segment. Leading and trailing
// separators are not preserved. A `..` that would climb above the root is
// an error.
func normalize(p string) (string, error) {
	segments := make([]string, 0, strings.Count(p, "/")+1)
	for _, segment := range strings.Split(p, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			if len(segments) == 0 {
				return "", errEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, segment)
		}
	}
	return strings.Join(segments, "/"), nil
}

// literal keeps `.` and `..` segments untouched and only collapses
// repeated separators. Used for exact-root packages.
func literal(p string) string {
	segments := make([]string, 0, strings.Count(p, "/")+1)
	for _, segment := range strings.Split(p, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return strings.Join(segments, "/")
}

// lastSegment returns the final component of a normalized package path.
func lastSegment(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func join(base, rel string) string {
	if base == "" {
		return rel
	}
	return base + "/" + rel
}
