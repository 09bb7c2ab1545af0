package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gridnav.ai/internal/config"
	"gridnav.ai/internal/nav"
	"gridnav.ai/internal/persistence/actionlog"
	"gridnav.ai/internal/persistence/indexdb"
	"gridnav.ai/internal/persistence/snapshot"
	"gridnav.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		configPath = flag.String("config", "./configs/config.yaml", "config file path (may be absent)")
		snapPath   = flag.String("snapshot", "", "grid snapshot to load (overrides config)")
		disableDB  = flag.Bool("disable_db", false, "disable the query index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfgPath := *configPath
	if _, err := os.Stat(cfgPath); err != nil {
		cfgPath = ""
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if strings.TrimSpace(*addr) != "" {
		cfg.Server.Listen = *addr
	}
	if strings.TrimSpace(*snapPath) != "" {
		cfg.Grid.SnapshotPath = *snapPath
	}
	if *disableDB {
		cfg.Index.Disabled = true
	}

	grid, obs := buildGrid(cfg, logger)

	var idx *indexdb.SQLiteIndex
	if !cfg.Index.Disabled {
		idx, err = indexdb.Open(cfg.Index.Path)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	actions := actionlog.NewWriter(cfg.Log.Dir, "actions")
	defer actions.Close()
	sink := ws.ActionSink(actions)
	if cfg.Log.Compact {
		compact, err := actionlog.NewCompactWriter(filepath.Join(cfg.Log.Dir, "actions.bin"))
		if err != nil {
			logger.Fatalf("open compact log: %v", err)
		}
		defer compact.Close()
		sink = multiActionSink{a: actions, b: compactSink{compact}}
	}
	_ = sink.Write(actionlog.ObserverMove(grid.Revision(), obs.Pos.X, obs.Pos.Y, obs.MessyX, obs.MessyY))

	ctx, cancel := signalContext()
	defer cancel()

	// Periodic grid snapshots plus one on shutdown.
	snapFile := cfg.Grid.SnapshotPath
	if strings.TrimSpace(snapFile) == "" {
		snapFile = filepath.Join(cfg.Server.DataDir, "grid.snap")
	}
	writeSnap := func() {
		st := snapshot.Capture(grid.Snapshot(), obs)
		if err := snapshot.Write(snapFile, st); err != nil {
			logger.Printf("snapshot write: %v", err)
		}
	}
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				writeSnap()
				return
			case <-t.C:
				writeSnap()
			}
		}
	}()

	wsSrv := ws.NewServer(grid, logger, ws.Options{
		ExpansionBudget: cfg.Planner.ExpansionBudget,
		Actions:         sink,
		Index:           idx,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/admin/v1/queries", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		if idx == nil {
			http.Error(rw, "index disabled", http.StatusServiceUnavailable)
			return
		}
		rows, err := idx.RecentQueries(100)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(rows)
	})
	if envBool("GN_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (grid %dx%d, revision %d)", cfg.Server.Listen, cfg.Grid.Rows, cfg.Grid.Cols, grid.Revision())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// buildGrid restores from a snapshot when one exists, else starts from
// the configured dimensions and blocked cells.
func buildGrid(cfg config.Config, logger *log.Logger) (*nav.Grid, nav.ObserverState) {
	path := strings.TrimSpace(cfg.Grid.SnapshotPath)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			st, err := snapshot.Read(path)
			if err != nil {
				logger.Fatalf("read snapshot: %v", err)
			}
			g, err := st.Grid()
			if err != nil {
				logger.Fatalf("restore grid: %v", err)
			}
			logger.Printf("restored grid from %s (%dx%d, %d blocked)", filepath.Base(path), st.Rows, st.Cols, len(st.BlockedCells))
			return g, st.Observer()
		}
	}
	return nav.GridWithBlocked(cfg.Grid.Rows, cfg.Grid.Cols, cfg.Grid.BlockedCells), nav.ObserverState{}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// multiActionSink fans one entry out to both log forms.
type multiActionSink struct {
	a ws.ActionSink
	b ws.ActionSink
}

func (m multiActionSink) Write(e actionlog.Entry) error {
	if m.a != nil {
		_ = m.a.Write(e)
	}
	if m.b != nil {
		_ = m.b.Write(e)
	}
	return nil
}

// compactSink adapts the compact writer to the sink interface. Entries
// are timestamped here because the compact stream delta-codes time.
type compactSink struct {
	w *actionlog.CompactWriter
}

func (c compactSink) Write(e actionlog.Entry) error {
	if e.TimeMs == 0 {
		e.TimeMs = time.Now().UnixMilli()
	}
	return c.w.Append(e)
}
