// Package snapshot saves and restores grid state. A snapshot carries
// a JSON header line followed by a gob body, both zstd-compressed, so
// the revision is readable without decoding the whole file.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"gridnav.ai/internal/nav"
)

type Header struct {
	Version  int    `json:"version"`
	Revision uint64 `json:"revision"`
}

type StateV1 struct {
	Header Header `json:"header"`

	Rows         int   `json:"rows"`
	Cols         int   `json:"cols"`
	BlockedCells []int `json:"blocked_cells"`

	ObserverX      int  `json:"observer_x"`
	ObserverY      int  `json:"observer_y"`
	ObserverMessyX bool `json:"observer_messy_x,omitempty"`
	ObserverMessyY bool `json:"observer_messy_y,omitempty"`
}

// Capture freezes the given view and observer into a writable state.
func Capture(v *nav.GridView, obs nav.ObserverState) StateV1 {
	return StateV1{
		Header:         Header{Version: 1, Revision: v.Revision()},
		Rows:           v.Rows(),
		Cols:           v.Cols(),
		BlockedCells:   v.BlockedIDs(),
		ObserverX:      obs.Pos.X,
		ObserverY:      obs.Pos.Y,
		ObserverMessyX: obs.MessyX,
		ObserverMessyY: obs.MessyY,
	}
}

// Grid rebuilds the saved grid. The restored grid starts at revision
// zero; revisions only order edits within one process lifetime.
func (st StateV1) Grid() (*nav.Grid, error) {
	if st.Rows <= 0 || st.Cols <= 0 {
		return nil, fmt.Errorf("bad grid dims %dx%d", st.Rows, st.Cols)
	}
	n := st.Rows * st.Cols
	for _, id := range st.BlockedCells {
		if id < 0 || id >= n {
			return nil, fmt.Errorf("blocked cell %d out of range [0,%d)", id, n)
		}
	}
	return nav.GridWithBlocked(st.Rows, st.Cols, st.BlockedCells), nil
}

func (st StateV1) Observer() nav.ObserverState {
	return nav.ObserverState{
		Pos:    nav.Position{X: st.ObserverX, Y: st.ObserverY},
		MessyX: st.ObserverMessyX,
		MessyY: st.ObserverMessyY,
	}
}

// Write stores the state atomically: the file appears under its final
// name only once fully written.
func Write(path string, st StateV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := writeFile(tmp, st); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeFile(path string, st StateV1) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(st.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&st); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func Read(path string) (StateV1, error) {
	var st StateV1
	f, err := os.Open(path)
	if err != nil {
		return st, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return st, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return st, fmt.Errorf("read header: %w", err)
	}
	var hdr Header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return st, fmt.Errorf("parse header: %w", err)
	}
	if hdr.Version != 1 {
		return st, fmt.Errorf("unsupported snapshot version %d", hdr.Version)
	}

	if err := gob.NewDecoder(br).Decode(&st); err != nil {
		return st, fmt.Errorf("gob decode: %w", err)
	}
	return st, nil
}
