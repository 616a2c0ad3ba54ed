// Package version carries the interpreter's build identity, reported
// by the pyvm CLI's version flag and repl banner.
package version

import "fmt"

const (
	// Number is the pyvm release string.
	Number = "0.1.0"

	// Bytecode names the bytecode generation this build runs.
	Bytecode = "CPython 2.7"
)

// Commit is stamped by the build via -ldflags "-X ...version.Commit=";
// "dev" for local builds.
var Commit = "dev"

func Version() string {
	return fmt.Sprintf("%s+%s (%s bytecode)", Number, Commit, Bytecode)
}
