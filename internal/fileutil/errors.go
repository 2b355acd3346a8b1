package fileutil

import "fmt"

// FileSystemError reports a directory or file operation that failed.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies the error; JSON logs render it as the error's kind.
func (e *FileSystemError) ErrorKind() string {
	return "filesystem"
}
