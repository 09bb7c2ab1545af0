package actionlog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Compact stream format, one record per entry:
//
//	uvarint kind, uvarint phase, zigzag delta(time_ms),
//	uvarint revision, flags byte, then zigzag start_x, start_y,
//	dest_x, dest_y, cell_id, waypoints, duration_ms.
//
// Timestamps are delta-coded against the previous record, so steady
// traffic costs one or two bytes per timestamp. Session ids are not
// carried; the JSONL stream keeps the full fidelity record.

const (
	flagMessyX  = 1 << 0
	flagMessyY  = 1 << 1
	flagBlocked = 1 << 2
	flagFound   = 1 << 3
)

var kindCodes = map[Kind]uint64{
	KindPathQuery:    1,
	KindGridEdit:     2,
	KindObserverMove: 3,
}

var phaseCodes = map[Phase]uint64{
	"":          0,
	PhaseStart:  1,
	PhaseFinish: 2,
}

func codeToKind(c uint64) (Kind, bool) {
	for k, v := range kindCodes {
		if v == c {
			return k, true
		}
	}
	return "", false
}

func codeToPhase(c uint64) (Phase, bool) {
	for p, v := range phaseCodes {
		if v == c {
			return p, true
		}
	}
	return "", false
}

type CompactWriter struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	lastMs int64
}

func NewCompactWriter(path string) (*CompactWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &CompactWriter{f: f, w: bufio.NewWriterSize(f, 64*1024)}, nil
}

func (w *CompactWriter) Append(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	kind, ok := kindCodes[e.Kind]
	if !ok {
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	phase, ok := phaseCodes[e.Phase]
	if !ok {
		return fmt.Errorf("unknown phase %q", e.Phase)
	}

	var buf [binary.MaxVarintLen64]byte
	putU := func(v uint64) error {
		n := binary.PutUvarint(buf[:], v)
		_, err := w.w.Write(buf[:n])
		return err
	}
	putS := func(v int64) error {
		n := binary.PutVarint(buf[:], v)
		_, err := w.w.Write(buf[:n])
		return err
	}

	if err := putU(kind); err != nil {
		return err
	}
	if err := putU(phase); err != nil {
		return err
	}
	if err := putS(e.TimeMs - w.lastMs); err != nil {
		return err
	}
	w.lastMs = e.TimeMs
	if err := putU(e.Revision); err != nil {
		return err
	}

	var flags byte
	if e.MessyX {
		flags |= flagMessyX
	}
	if e.MessyY {
		flags |= flagMessyY
	}
	if e.Blocked {
		flags |= flagBlocked
	}
	if e.Found {
		flags |= flagFound
	}
	if err := w.w.WriteByte(flags); err != nil {
		return err
	}

	for _, v := range []int64{
		int64(e.StartX), int64(e.StartY),
		int64(e.DestX), int64(e.DestY),
		int64(e.CellID), int64(e.Waypoints), e.DurationMs,
	} {
		if err := putS(v); err != nil {
			return err
		}
	}
	return nil
}

func (w *CompactWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}

// ReadCompact decodes a compact stream back into entries.
func ReadCompact(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	var out []Entry
	var lastMs int64
	for {
		kindCode, err := binary.ReadUvarint(r)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
		}

		var e Entry
		kind, ok := codeToKind(kindCode)
		if !ok {
			return nil, fmt.Errorf("record %d: unknown kind code %d", len(out)+1, kindCode)
		}
		e.Kind = kind

		phaseCode, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
		}
		phase, ok := codeToPhase(phaseCode)
		if !ok {
			return nil, fmt.Errorf("record %d: unknown phase code %d", len(out)+1, phaseCode)
		}
		e.Phase = phase

		dt, err := binary.ReadVarint(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
		}
		lastMs += dt
		e.TimeMs = lastMs

		rev, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
		}
		e.Revision = rev

		flags, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
		}
		e.MessyX = flags&flagMessyX != 0
		e.MessyY = flags&flagMessyY != 0
		e.Blocked = flags&flagBlocked != 0
		e.Found = flags&flagFound != 0

		fields := make([]int64, 7)
		for i := range fields {
			v, err := binary.ReadVarint(r)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
			}
			fields[i] = v
		}
		e.StartX, e.StartY = int(fields[0]), int(fields[1])
		e.DestX, e.DestY = int(fields[2]), int(fields[3])
		e.CellID = int(fields[4])
		e.Waypoints = int(fields[5])
		e.DurationMs = fields[6]

		out = append(out, e)
	}
}
