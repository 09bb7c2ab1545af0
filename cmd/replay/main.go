// Command replay decodes recorded action logs, either the compressed
// JSONL files or the compact binary stream, and prints them as JSON
// lines for inspection.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"gridnav.ai/internal/persistence/actionlog"
)

func main() {
	var (
		path    = flag.String("log", "", "path to a .jsonl.zst action log")
		compact = flag.String("compact", "", "path to a compact actions.bin stream")
		kind    = flag.String("kind", "", "only print entries of this kind (PATH_QUERY, GRID_EDIT, OBSERVER_MOVE)")
		since   = flag.Int64("since", 0, "only print entries with time_ms >= this")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	var (
		entries []actionlog.Entry
		err     error
	)
	switch {
	case strings.TrimSpace(*path) != "":
		entries, err = actionlog.ReadAll(*path)
	case strings.TrimSpace(*compact) != "":
		entries, err = actionlog.ReadCompact(*compact)
	default:
		logger.Fatal("one of -log or -compact is required")
	}
	if err != nil {
		logger.Fatalf("read: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	printed := 0
	for _, e := range entries {
		if *kind != "" && string(e.Kind) != *kind {
			continue
		}
		if e.TimeMs < *since {
			continue
		}
		if err := enc.Encode(e); err != nil {
			logger.Fatalf("encode: %v", err)
		}
		printed++
	}
	logger.Printf("%d entries (%d printed)", len(entries), printed)
}
