package source

import (
	"path/filepath"
	"strings"
)

// SourceFile represents a single compilation unit's source text and metadata.
type SourceFile struct {
	Name    string // Display name (e.g., "main.bf.c", "<stdin>")
	Path    string // Full file path (empty for stdin)
	Content string
	lines   []string // cached split lines
}

// NewSourceFile creates a new source file.
func NewSourceFile(name, path, content string) *SourceFile {
	return &SourceFile{Name: name, Path: path, Content: content}
}

// NewStdinSource creates a source file for stdin input.
func NewStdinSource(content string) *SourceFile {
	return &SourceFile{Name: "<stdin>", Content: content}
}

// Lines returns the source split into lines (cached).
func (sf *SourceFile) Lines() []string {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	return sf.lines
}

// DisplayPath returns the best path for display (prefers Path, falls back to Name).
func (sf *SourceFile) DisplayPath() string {
	if sf.Path != "" {
		return sf.Path
	}
	return sf.Name
}

// IsFile reports whether this source represents an actual file on disk.
func (sf *SourceFile) IsFile() bool {
	return sf.Path != ""
}

// FromFile creates a SourceFile from a file path and its already-read content.
func FromFile(filePath, content string) *SourceFile {
	return NewSourceFile(filepath.Base(filePath), filePath, content)
}
