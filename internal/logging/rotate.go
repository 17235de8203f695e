package logging

import (
	"fmt"
	"os"
	"sync"
)

// rotatingWriter is a minimal size-based log rotator: when the current file
// would exceed maxSize, it's renamed with a numeric suffix and a fresh file
// is opened. Older numbered files beyond maxFiles are removed. This keeps
// §6.4's "rotated by size and count" promise without pulling in a rotation
// library the rest of the pack never uses.
type rotatingWriter struct {
	mu       sync.Mutex
	path     string
	maxSize  int64
	maxFiles int
	file     *os.File
	size     int64
}

func newRotatingWriter(path string, maxSize int64, maxFiles int) (*rotatingWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &rotatingWriter{path: path, maxSize: maxSize, maxFiles: maxFiles, file: f, size: info.Size()}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxSize > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	if w.maxFiles > 0 {
		for i := w.maxFiles - 1; i >= 1; i-- {
			src := fmt.Sprintf("%s.%d", w.path, i)
			dst := fmt.Sprintf("%s.%d", w.path, i+1)
			if i+1 > w.maxFiles {
				os.Remove(src)
				continue
			}
			os.Rename(src, dst)
		}
		os.Rename(w.path, fmt.Sprintf("%s.1", w.path))
	} else {
		os.Remove(w.path)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	return nil
}
