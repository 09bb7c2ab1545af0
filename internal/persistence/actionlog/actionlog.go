// Package actionlog records grid edits, observer moves and path
// queries as compressed JSONL, with an optional compact binary stream
// for replay tooling.
package actionlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

type Kind string

const (
	KindPathQuery    Kind = "PATH_QUERY"
	KindGridEdit     Kind = "GRID_EDIT"
	KindObserverMove Kind = "OBSERVER_MOVE"
)

type Phase string

const (
	PhaseStart  Phase = "START"
	PhaseFinish Phase = "FINISH"
)

// Entry is one logged action. Fields irrelevant to the kind stay zero
// and are elided from the JSON.
type Entry struct {
	TimeMs   int64  `json:"time_ms"`
	Kind     Kind   `json:"kind"`
	Phase    Phase  `json:"phase,omitempty"`
	Session  string `json:"session,omitempty"`
	Revision uint64 `json:"revision,omitempty"`

	StartX int  `json:"start_x,omitempty"`
	StartY int  `json:"start_y,omitempty"`
	DestX  int  `json:"dest_x,omitempty"`
	DestY  int  `json:"dest_y,omitempty"`
	MessyX bool `json:"messy_x,omitempty"`
	MessyY bool `json:"messy_y,omitempty"`

	CellID  int  `json:"cell_id,omitempty"`
	Blocked bool `json:"blocked,omitempty"`

	Found      bool  `json:"found,omitempty"`
	Waypoints  int   `json:"waypoints,omitempty"`
	DurationMs int64 `json:"duration_ms,omitempty"`
}

// ObserverMove records an observer placement, such as the position
// restored from a snapshot at startup.
func ObserverMove(rev uint64, x, y int, messyX, messyY bool) Entry {
	return Entry{
		TimeMs: time.Now().UnixMilli(), Kind: KindObserverMove, Revision: rev,
		StartX: x, StartY: y, MessyX: messyX, MessyY: messyY,
	}
}

// Writer appends zstd-compressed JSONL, rotating to a new file each
// UTC hour.
type Writer struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(baseDir, prefix string) *Writer {
	return &Writer{baseDir: baseDir, prefix: prefix}
}

func (w *Writer) Write(e Entry) error {
	if e.TimeMs == 0 {
		e.TimeMs = time.Now().UnixMilli()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
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
	w.w = bufio.NewWriterSize(enc, 128*1024)
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
	return err
}

// ReadAll decodes a rotated JSONL file back into entries. Used by
// tests and the replay tool.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Entry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 1024), 1<<20)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", len(out)+1, err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
