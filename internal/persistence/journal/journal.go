// Package journal records container session events as hourly zstd-compressed JSONL files.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

type Kind string

const (
	KindOpen       Kind = "open"
	KindClose      Kind = "close"
	KindSaveFailed Kind = "save_failed"
	KindLootFailed Kind = "loot_failed"
	KindLoadFailed Kind = "load_failed"
)

type Entry struct {
	TS        time.Time `json:"ts"`
	Kind      Kind      `json:"kind"`
	Player    uuid.UUID `json:"player"`
	Container string    `json:"container"`
	Slots     int       `json:"slots"`
	Error     string    `json:"error,omitempty"`
}

// Writer appends JSON lines to <dir>/<prefix>-YYYY-MM-DD-HH.jsonl.zst, opening a new file whenever
// the UTC hour changes. Each entry is flushed through the encoder so a crash loses at most the
// entry being written. Safe for concurrent use.
type Writer struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(baseDir, prefix string) *Writer {
	return &Writer{baseDir: baseDir, prefix: prefix, now: time.Now}
}

// Open returns the session journal under <dataDir>/journal.
func Open(dataDir string) *Writer {
	return NewWriter(filepath.Join(dataDir, "journal"), "sessions")
}

// Record stamps e (when TS is zero) and appends it.
func (w *Writer) Record(e Entry) error {
	if e.TS.IsZero() {
		e.TS = w.now().UTC()
	}
	return w.Write(e)
}

func (w *Writer) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour || w.w == nil {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// PathForHour is the file an entry written during hour (UTC, "2006-01-02-15") lands in.
func (w *Writer) PathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.PathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}
