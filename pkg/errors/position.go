package errors

import "byteflow/pkg/source"

// Position represents a specific location in the source code.
// Line/Column are 1-based for human display; StartPos/EndPos are 0-based
// byte offsets for tooling.
type Position struct {
	Line     int
	Column   int
	StartPos int
	EndPos   int
	Source   *source.SourceFile
}
