package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/TFMV/hapviz/models"
	"github.com/TFMV/hapviz/physics"
)

// Message types sent on the tick stream
const (
	MessageNodes = "nodes"
	MessageTick  = "tick"
	MessageEnd   = "end"
)

// StreamNode is a node as first sent to the page
type StreamNode struct {
	Index  int         `json:"index"`
	Role   models.Role `json:"role"`
	Name   string      `json:"name"`
	Radius float64     `json:"radius"`
	Color  string      `json:"color"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
}

// StreamPosition is a node position in a tick message
type StreamPosition struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// StreamMessage is one websocket message
type StreamMessage struct {
	Type   string           `json:"type"`
	Width  float64          `json:"width,omitempty"`
	Height float64          `json:"height,omitempty"`
	Tick   int              `json:"tick,omitempty"`
	Alpha  float64          `json:"alpha,omitempty"`
	Nodes  []StreamNode     `json:"-"`
	Moves  []StreamPosition `json:"-"`
}

// MarshalJSON writes Nodes or Moves under "nodes"
func (m StreamMessage) MarshalJSON() ([]byte, error) {
	type plain StreamMessage
	out := struct {
		plain
		Nodes interface{} `json:"nodes,omitempty"`
	}{plain: plain(m)}
	switch {
	case m.Nodes != nil:
		out.Nodes = m.Nodes
	case m.Moves != nil:
		out.Nodes = m.Moves
	}
	return json.Marshal(out)
}

// conn serializes writes to a websocket connection
type conn struct {
	c       *websocket.Conn
	writeMu sync.Mutex
}

func (c *conn) send(m StreamMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.c.WriteMessage(websocket.TextMessage, data)
}

// handleStream runs one simulation for the connection and streams its ticks.
// Any message from the client, or a closed connection, stops the run.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	graph, err := s.store.Load(r.URL.Query().Get("dataset"))
	if err != nil {
		s.fail(w, err)
		return
	}

	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer c.Close()
	ws := &conn{c: c}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		// Client can send anything and it will cancel the session.
		_, _, _ = c.ReadMessage()
		cancel()
	}()

	sim := physics.NewSimulation(s.cfg.Layout.Params(), s.logger)
	var layout physics.LayoutAlgorithm = sim
	if r.URL.Query().Get("type") == "drift" {
		layout = physics.NewNoiseLayout(sim, s.cfg.Layout.Noise+.5, s.cfg.Layout.Seed)
	}
	layout.Initialize(graph.Graph)
	layout.Apply(graph.Graph)

	nodes := make([]StreamNode, len(graph.Nodes))
	for i, n := range graph.Nodes {
		p := graph.Position(i)
		nodes[i] = StreamNode{Index: i, Role: n.Role, Name: n.Name, Radius: n.Radius, Color: n.Color, X: p.X, Y: p.Y}
	}
	if err := ws.send(StreamMessage{Type: MessageNodes, Width: graph.Width, Height: graph.Height, Nodes: nodes}); err != nil {
		s.logger.Debug("ws write failed", zap.Error(err))
		return
	}

	var sendErr error
	sim.OnTick(func(f physics.Frame) {
		if sendErr != nil {
			return
		}
		moves := make([]StreamPosition, len(f.Positions))
		for i, p := range f.Positions {
			moves[i] = StreamPosition{Index: i, X: p.X, Y: p.Y}
		}
		sendErr = ws.send(StreamMessage{Type: MessageTick, Tick: f.Tick, Alpha: f.Alpha, Moves: moves})
	})

	delay := s.cfg.Server.TickDelay.Duration
	for !layout.Step() {
		if sendErr != nil {
			s.logger.Debug("ws write failed", zap.Error(sendErr))
			return
		}
		if delay <= 0 {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	s.logger.Debug("Stream finished",
		zap.String("dataset", graph.Name),
		zap.Int("ticks", sim.Ticks()))
	_ = ws.send(StreamMessage{Type: MessageEnd, Tick: sim.Ticks()})
	_ = c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}
