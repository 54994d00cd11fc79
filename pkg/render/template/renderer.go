package template

import (
	"io"
)

// Compiler parses template sources ahead of time so parse errors surface when
// a catalog is loaded rather than when a message is first shown.
type Compiler interface {
	Compile(source string) (Compiled, error)
}

// FileCompiler loads named templates from the engine's template directory.
type FileCompiler interface {
	CompileFile(name string) (Compiled, error)
}

// Compiled is a parsed template ready for execution.
type Compiled interface {
	Execute(data any, out ...io.Writer) (string, error)
}
