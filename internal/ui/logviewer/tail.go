package logviewer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxTailBytes bounds how much of the production log is read per refresh.
const maxTailBytes = 256 * 1024

// ReadTail returns up to maxLines trailing lines of path. A missing file
// yields no lines and no error; the backend creates it on the first run.
func ReadTail(path string, maxLines int) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: configured log path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening log: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	offset := max(info.Size()-maxTailBytes, 0)
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking log: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	if offset > 0 {
		// First line is probably cut in half.
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		}
	}

	text := strings.TrimRight(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}
