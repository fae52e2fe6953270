// internal/label/doc.go

/*
Package label parses and resolves target addresses ("labels").

A label names exactly one buildable target inside a multi-repository
workspace. Its canonical form is

	@repository//package:target

Label text written by rule authors may omit any part of that form. Omitted
parts are filled in from the context the label was written in (the current
repository and the current package):

	:target          target in the current package
	sub:target       target in <current package>/sub
	target           target in the current package
	//pkg:target     target in pkg, current repository
	//pkg            target named after the last segment of pkg
	@repo//pkg:t     fully qualified
	!/usr/lib:libz   exact root, the package path is taken literally

The `//` root normalizes `.` and `..` segments. The `!/` root ("exact") keeps
the package path literally; exact labels describe host paths outside the
workspace.

Resolution is pure: the same text and context always produce the same
Label.
*/
package label
