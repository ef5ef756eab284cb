package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SplitArgs flattens raw trailing tokens into arguments: every token is
// split on whitespace and empty pieces are dropped, so `"-a  -b"` and
// `"-a", "-b"` yield the same result.
func SplitArgs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		out = append(out, strings.Fields(tok)...)
	}
	return out
}

// CopyFile copies src to dst, creating dst's parent directory and
// truncating dst if it exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	buf := GetBuf()
	defer PutBuf(buf)
	if _, err := io.CopyBuffer(out, in, *buf); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

// WriteFileAtomic writes data to a temp file next to path and renames
// it into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, perm); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
