package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Exists reports whether path can be stat'ed. Symlinks are followed.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory. Symlinks are followed.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// MatchDir returns the paths of entries directly inside dir whose names match
// pattern, in the order the directory enumerates them. Nothing is sorted, so
// the result follows on-disk order the way a shell glob over readdir does.
// Dot-files only match patterns that start with a dot. A missing dir yields
// no matches.
func MatchDir(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, &FileSystemError{Op: "match", Path: filepath.Join(dir, pattern), Err: err}
	}
	f, err := os.Open(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &FileSystemError{Op: "open directory", Path: dir, Err: err}
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, &FileSystemError{Op: "read directory", Path: dir, Err: err}
	}
	var matches []string
	for _, name := range names {
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(pattern, ".") {
			continue
		}
		if ok, _ := filepath.Match(pattern, name); ok {
			matches = append(matches, filepath.Join(dir, name))
		}
	}
	return matches, nil
}

// AppendFile streams the raw bytes of src onto dst.
func AppendFile(dst io.Writer, src string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, &FileSystemError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	written, err := io.Copy(dst, in)
	if err != nil {
		return written, &FileSystemError{Op: "copy", Path: src, Err: err}
	}
	return written, nil
}

// ConcatFiles creates dst with the given mode and appends every src to it in
// order, byte for byte. An empty srcs list yields an empty dst. The byte count
// written is checked against the sizes of the sources; on mismatch dst is
// removed.
func ConcatFiles(dst string, srcs []string, mode os.FileMode) (int64, error) {
	var expected int64
	for _, src := range srcs {
		info, err := os.Stat(src)
		if err != nil {
			return 0, &FileSystemError{Op: "stat", Path: src, Err: err}
		}
		expected += info.Size()
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, &FileSystemError{Op: "create", Path: dst, Err: err}
	}
	defer func() {
		_ = out.Close()
	}()

	var total int64
	for _, src := range srcs {
		written, err := AppendFile(out, src)
		total += written
		if err != nil {
			return total, err
		}
	}
	if err := out.Close(); err != nil {
		return total, &FileSystemError{Op: "close", Path: dst, Err: err}
	}

	if total != expected {
		_ = os.Remove(dst)
		return total, &FileSystemError{
			Op:   "concat",
			Path: dst,
			Err:  fmt.Errorf("size mismatch: sources %d bytes, written %d bytes", expected, total),
		}
	}
	return total, nil
}

// IsNotExist reports whether err, possibly wrapped, means a missing file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
