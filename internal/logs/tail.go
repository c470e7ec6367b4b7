package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	maxLineBytes = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// Tailer reads lines appended to a log file between calls.
type Tailer struct {
	path   string
	offset int64
	info   os.FileInfo
}

// NewTailer returns a tailer positioned at the start of path.
func NewTailer(path string) *Tailer {
	return &Tailer{path: path}
}

// Path returns the file being tailed.
func (t *Tailer) Path() string {
	return t.path
}

// Last returns up to n trailing lines and moves the offset to the end of the
// file. A missing file yields no lines. n <= 0 only seeks to the end.
func (t *Tailer) Last(n int) ([]string, error) {
	file, info, err := t.open()
	if err != nil || file == nil {
		return nil, err
	}
	defer file.Close()

	t.info = info
	if n <= 0 {
		t.offset = info.Size()
		return nil, nil
	}

	scanner := newScanner(file)
	ring := make([]string, n)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % n
		if count < n {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("determine log offset: %w", err)
	}
	t.offset = offset

	lines := make([]string, count)
	if count == n {
		for i := range count {
			lines[i] = ring[(idx+i)%n]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Next returns complete lines written since the previous call. When none are
// available it polls for up to wait before returning an empty slice.
func (t *Tailer) Next(ctx context.Context, wait time.Duration) ([]string, error) {
	deadline := time.Now().Add(max(wait, 0))
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		lines, err := t.readForward()
		if err != nil || len(lines) > 0 {
			return lines, err
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Follow delivers new lines to fn until ctx is cancelled or fn fails.
func (t *Tailer) Follow(ctx context.Context, fn func(line string) error) error {
	for {
		lines, err := t.Next(ctx, time.Second)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		for _, line := range lines {
			if err := fn(line); err != nil {
				return err
			}
		}
	}
}

func (t *Tailer) open() (*os.File, os.FileInfo, error) {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.offset = 0
			t.info = nil
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, nil, fmt.Errorf("log path %q is a directory", t.path)
	}
	return file, info, nil
}

func (t *Tailer) readForward() ([]string, error) {
	file, info, err := t.open()
	if err != nil || file == nil {
		return nil, err
	}
	defer file.Close()

	// A new daemon run re-points valier.log; start the new file from the top.
	if t.info != nil && !os.SameFile(t.info, info) {
		t.offset = 0
	}
	if info.Size() < t.offset {
		t.offset = 0
	}
	t.info = info

	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var lines []string
	consumed := t.offset
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// Partial lines stay unread until the writer finishes them.
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes]
		}
		lines = append(lines, trimNewline(line))
	}
	t.offset = consumed
	return lines, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

func trimNewline(line string) string {
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
