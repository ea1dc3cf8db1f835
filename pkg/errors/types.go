package errors

import (
	"fmt"
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// NotADirectory is returned when a path that must be a directory, such as the
// source root of a task, is something else.
type NotADirectory struct {
	Path string
}

func (err NotADirectory) Error() string {
	return fmt.Sprintf("%q is not a directory", err.Path)
}

// DirectoryNotEmpty is returned when removing a directory that still has
// entries. Directories are never removed recursively.
type DirectoryNotEmpty struct {
	Path string
}

func (err DirectoryNotEmpty) Error() string {
	return fmt.Sprintf("directory %q is not empty", err.Path)
}
