package combine

import "autocombine/internal/fileutil"

// FileSystemError reports a directory or file operation that failed while
// combining. It is shared with the scanner and recovery through fileutil.
type FileSystemError = fileutil.FileSystemError
