package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// rotatingWriter appends to a file and rotates it when it would exceed
// maxSize bytes. Rotated files get numeric suffixes, app.log.1 being the
// most recent; anything past maxBackups is dropped.
type rotatingWriter struct {
	mu         sync.Mutex
	file       *os.File
	path       string
	maxSize    int64
	maxBackups int
	size       int64
}

func newRotatingWriter(path string, maxSize int64, maxBackups int) (*rotatingWriter, error) {
	w := &rotatingWriter{
		path:       path,
		maxSize:    maxSize,
		maxBackups: maxBackups,
	}

	if err := w.open(); err != nil {
		return nil, err
	}

	info, err := w.file.Stat()
	if err != nil {
		_ = w.file.Close()
		return nil, err
	}
	w.size = info.Size()

	return w, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

func (w *rotatingWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	w.file = file
	return nil
}

// rotate shifts each backup up one slot and moves the live file to slot 1.
func (w *rotatingWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
	}

	if w.maxBackups > 0 {
		_ = os.Remove(w.backupName(w.maxBackups))
		for i := w.maxBackups - 1; i >= 1; i-- {
			if _, err := os.Stat(w.backupName(i)); err == nil {
				if err := os.Rename(w.backupName(i), w.backupName(i+1)); err != nil {
					return err
				}
			}
		}
		_ = os.Rename(w.path, w.backupName(1))
	} else {
		_ = os.Remove(w.path)
	}

	if err := w.open(); err != nil {
		return err
	}
	w.size = 0
	return nil
}

func (w *rotatingWriter) backupName(index int) string {
	return fmt.Sprintf("%s.%d", w.path, index)
}

var _ io.WriteCloser = (*rotatingWriter)(nil)
