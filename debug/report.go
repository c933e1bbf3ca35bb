package debug

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type report struct {
	mu      sync.Mutex
	created time.Time
	buf     bytes.Buffer
}

func newReport() *report {
	return &report{created: time.Now()}
}

func (r *report) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *report) Sync() error { return nil }

// take returns the collected text and starts a fresh report.
func (r *report) take() (time.Time, []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created := r.created
	out := bytes.Clone(r.buf.Bytes())
	r.buf.Reset()
	r.created = time.Now()
	return created, out
}

// SaveReport writes everything logged since the last report (warnings
// excluded, errors with their stack traces) to
// BugReport-<sha256 of the current time>.txt in dir and returns its path.
// An empty dir falls back to the configured report_dir, then to the working
// directory.
func (m *Manager) SaveReport(dir string) (string, error) {
	if dir == "" {
		dir = m.Config().ReportDir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("debug: create report dir: %w", err)
	}

	now := time.Now()
	sum := sha256.Sum256([]byte(now.String()))
	path := filepath.Join(dir, "BugReport-"+hex.EncodeToString(sum[:])+".txt")

	_ = m.logger.Sync()
	created, body := m.report.take()

	var out bytes.Buffer
	fmt.Fprintf(&out, "Log created %s\n\n", created.Format(time.DateTime))
	out.Write(body)

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("debug: write report %s: %w", path, err)
	}
	return path, nil
}
