// Package buildfile evaluates the BUILD.hcl files of a workspace into
// targets.
//
// Every directory below the workspace root may hold one BUILD.hcl. The
// directory's slash separated path relative to the root is the package the
// file's labels resolve against, so `:lib` in src/net/BUILD.hcl names
// //src/net:lib. A file declares targets:
//
//	target "lib" {
//	  inputs  = ["lib.c", "//include:headers"]
//	  outputs = ["lib.o"]
//	  deps    = [":gen"]
//	  command = "cc -c lib.c -o lib.o"
//	}
//
// Expressions see two variables, repository and package, plus a small set
// of string and collection functions. command is either a single string,
// split into words with shell quoting rules, or a list of words.
package buildfile
