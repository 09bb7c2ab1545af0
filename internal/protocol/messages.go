package protocol

// HelloMsg opens a session.
type HelloMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	ClientName      string       `json:"client_name,omitempty"`
	Capabilities    Capabilities `json:"capabilities,omitempty"`
}

type Capabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WelcomeMsg answers a HELLO with the session id and current grid.
type WelcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	Grid            GridInfo `json:"grid"`
}

type GridInfo struct {
	Rows         int    `json:"rows"`
	Cols         int    `json:"cols"`
	Revision     uint64 `json:"revision"`
	BlockedCells []int  `json:"blocked_cells"`
}

// PathMsg asks for a route from an observer state to a destination.
// Revision, when non-zero, states which grid revision the client
// planned against; a mismatch is answered with E_STALE.
type PathMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	StartX          int    `json:"start_x"`
	StartY          int    `json:"start_y"`
	MessyX          bool   `json:"messy_x,omitempty"`
	MessyY          bool   `json:"messy_y,omitempty"`
	DestX           int    `json:"dest_x"`
	DestY           int    `json:"dest_y"`
	Revision        uint64 `json:"revision,omitempty"`
}

// EditMsg toggles one grid cell.
type EditMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	CellID          int    `json:"cell_id"`
	Blocked         bool   `json:"blocked"`
}

// ResultMsg answers a PATH or EDIT by request id. For a path query,
// Found distinguishes "no route" from an error; Waypoints is empty
// when start equals dest.
type ResultMsg struct {
	Type      string   `json:"type"`
	ID        string   `json:"id"`
	Revision  uint64   `json:"revision"`
	Found     bool     `json:"found,omitempty"`
	Waypoints [][2]int `json:"waypoints,omitempty"`
	Distance  float64  `json:"distance,omitempty"`
}

// ErrMsg reports a failed request.
type ErrMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
