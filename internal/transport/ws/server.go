// Package ws serves path queries and grid edits over a WebSocket
// session protocol.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gridnav.ai/internal/nav"
	"gridnav.ai/internal/persistence/actionlog"
	"gridnav.ai/internal/persistence/indexdb"
	"gridnav.ai/internal/protocol"
)

// ActionSink receives action log entries. *actionlog.Writer satisfies
// it; main tees it with the compact stream.
type ActionSink interface {
	Write(actionlog.Entry) error
}

type Options struct {
	// ExpansionBudget bounds corner expansions per query; 0 means unbounded.
	ExpansionBudget int

	// Actions and Index are optional sinks; nil disables them.
	Actions ActionSink
	Index   *indexdb.SQLiteIndex
}

type Server struct {
	grid *nav.Grid
	log  *log.Logger
	opts Options

	upgrader websocket.Upgrader

	// planner is rebuilt lazily whenever the grid revision moves, so
	// concurrent sessions at one revision share a single corner cache.
	mu      sync.Mutex
	planner *nav.Planner
}

func NewServer(g *nav.Grid, logger *log.Logger, opts Options) *Server {
	return &Server{
		grid: g,
		log:  logger,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		session, out := s.handshake(conn)
		if session == "" {
			return
		}
		s.log.Printf("session %s connected", session)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		send := func(v any) {
			b, err := json.Marshal(v)
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
			case out <- b:
			}
		}

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				send(protocol.ErrMsg{Type: protocol.TypeErr, Code: protocol.ErrProtoBadRequest, Message: "bad json"})
				continue
			}

			switch base.Type {
			case protocol.TypePath:
				var q protocol.PathMsg
				if err := json.Unmarshal(msg, &q); err != nil || q.ProtocolVersion != protocol.Version {
					send(protocol.ErrMsg{Type: protocol.TypeErr, ID: q.ID, Code: protocol.ErrProtoBadRequest})
					continue
				}
				send(s.handlePath(session, q))
			case protocol.TypeEdit:
				var e protocol.EditMsg
				if err := json.Unmarshal(msg, &e); err != nil || e.ProtocolVersion != protocol.Version {
					send(protocol.ErrMsg{Type: protocol.TypeErr, ID: e.ID, Code: protocol.ErrProtoBadRequest})
					continue
				}
				send(s.handleEdit(session, e))
			default:
				// Ignore unknown types.
			}
		}

		s.log.Printf("session %s disconnected", session)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (session string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	session = uuid.NewString()
	v := s.grid.Snapshot()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       session,
		Grid: protocol.GridInfo{
			Rows:         v.Rows(),
			Cols:         v.Cols(),
			Revision:     v.Revision(),
			BlockedCells: v.BlockedIDs(),
		},
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}
	return session, out
}

// currentPlanner returns a planner bound to the latest grid revision.
func (s *Server) currentPlanner() *nav.Planner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.planner == nil || s.planner.Revision() != s.grid.Revision() {
		var opts []nav.PlannerOption
		if s.opts.ExpansionBudget > 0 {
			opts = append(opts, nav.WithExpansionBudget(s.opts.ExpansionBudget))
		}
		s.planner = nav.NewPlanner(nav.NewCornerCache(s.grid.Snapshot()), opts...)
	}
	return s.planner
}

func (s *Server) handlePath(session string, q protocol.PathMsg) any {
	p := s.currentPlanner()
	rev := p.Revision()
	if q.Revision != 0 && q.Revision != rev {
		return protocol.ErrMsg{Type: protocol.TypeErr, ID: q.ID, Code: protocol.ErrStale}
	}

	start := nav.ObserverState{
		Pos:    nav.Position{X: q.StartX, Y: q.StartY},
		MessyX: q.MessyX,
		MessyY: q.MessyY,
	}
	dest := nav.Position{X: q.DestX, Y: q.DestY}

	startedAt := time.Now()
	if s.opts.Actions != nil {
		_ = s.opts.Actions.Write(actionlog.Entry{
			Kind: actionlog.KindPathQuery, Phase: actionlog.PhaseStart,
			Session: session, Revision: rev,
			StartX: q.StartX, StartY: q.StartY, DestX: q.DestX, DestY: q.DestY,
			MessyX: q.MessyX, MessyY: q.MessyY,
		})
	}

	path, err := p.FindPath(start, dest)
	durMs := time.Since(startedAt).Milliseconds()

	if err != nil {
		code := protocol.ErrInternal
		switch {
		case errors.Is(err, nav.ErrOutOfBounds):
			code = protocol.ErrOutOfBounds
		case errors.Is(err, nav.ErrMessySpan):
			code = protocol.ErrMessySpan
		}
		return protocol.ErrMsg{Type: protocol.TypeErr, ID: q.ID, Code: code, Message: err.Error()}
	}

	res := protocol.ResultMsg{Type: protocol.TypeResult, ID: q.ID, Revision: rev}
	if path != nil {
		res.Found = true
		res.Distance = path.Distance
		res.Waypoints = make([][2]int, len(path.Waypoints))
		for i, wp := range path.Waypoints {
			res.Waypoints[i] = [2]int{wp.X, wp.Y}
		}
	}

	if s.opts.Actions != nil {
		_ = s.opts.Actions.Write(actionlog.Entry{
			Kind: actionlog.KindPathQuery, Phase: actionlog.PhaseFinish,
			Session: session, Revision: rev,
			StartX: q.StartX, StartY: q.StartY, DestX: q.DestX, DestY: q.DestY,
			MessyX: q.MessyX, MessyY: q.MessyY,
			Found: res.Found, Waypoints: len(res.Waypoints), DurationMs: durMs,
		})
	}
	if s.opts.Index != nil {
		s.opts.Index.WritePathQuery(indexdb.QueryRow{
			TimeMs: startedAt.UnixMilli(), Session: session, Revision: rev,
			StartX: q.StartX, StartY: q.StartY, DestX: q.DestX, DestY: q.DestY,
			MessyX: q.MessyX, MessyY: q.MessyY,
			Found: res.Found, Waypoints: len(res.Waypoints), Distance: res.Distance,
			DurationMs: durMs,
		})
	}
	return res
}

func (s *Server) handleEdit(session string, e protocol.EditMsg) any {
	rows, cols := s.grid.Dimensions()
	if e.CellID < 0 || e.CellID >= rows*cols {
		return protocol.ErrMsg{Type: protocol.TypeErr, ID: e.ID, Code: protocol.ErrOutOfBounds}
	}
	x, y := e.CellID%cols, e.CellID/cols
	prev := s.grid.Revision()
	s.grid.SetBlocked(x, y, e.Blocked)
	rev := s.grid.Revision()

	// A no-op edit leaves the revision alone; recording it would shadow
	// the edit that actually produced the current revision.
	if rev != prev {
		if s.opts.Actions != nil {
			_ = s.opts.Actions.Write(actionlog.Entry{
				Kind: actionlog.KindGridEdit, Session: session, Revision: rev,
				CellID: e.CellID, Blocked: e.Blocked,
			})
		}
		if s.opts.Index != nil {
			s.opts.Index.WriteEdit(indexdb.EditRow{
				Revision: rev, CellID: e.CellID, Blocked: e.Blocked,
				TimeMs: time.Now().UnixMilli(),
			})
		}
	}
	return protocol.ResultMsg{Type: protocol.TypeResult, ID: e.ID, Revision: rev}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
