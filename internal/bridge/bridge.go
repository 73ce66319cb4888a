// Package bridge streams planner events to external renderers over
// WebSocket. The core planners stay render-free; anything that wants
// to draw the run (a browser dashboard, a recorder) subscribes here.
package bridge

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Charlie0257/reactive-ltl/internal/core"
)

// Time allowed to write an event to a peer before it is dropped.
const writeWait = time.Second

// Event is the wire form of one planner event.
type Event struct {
	Seq  int    `json:"seq"`
	Run  string `json:"run"`
	Kind string `json:"kind"`

	Iteration int `json:"iteration,omitempty"`
	TSStates  int `json:"ts_states,omitempty"`
	PAStates  int `json:"pa_states,omitempty"`

	Step       int     `json:"step,omitempty"`
	TreeSize   int     `json:"tree_size,omitempty"`
	DurationMS float64 `json:"duration_ms,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	Potential  int     `json:"potential,omitempty"`

	Request  string `json:"request,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

// Bridge implements planner.Observer and fans events out to every
// connected client. Events emitted while no client is connected are
// dropped, not queued.
type Bridge struct {
	runID    string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	seq     int
}

// New creates a bridge for the given run.
func New(runID string) *Bridge {
	return &Bridge{
		runID:   runID,
		clients: map[*websocket.Conn]bool{},
	}
}

// Handler upgrades incoming connections and registers them for event
// fan-out. Client messages are read and discarded to service control
// frames.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.mu.Lock()
		b.clients[conn] = true
		b.mu.Unlock()

		go func() {
			defer b.drop(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

// Close disconnects every client.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		conn.Close()
		delete(b.clients, conn)
	}
}

// ClientCount returns the number of connected clients.
func (b *Bridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Bridge) drop(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clients[conn] {
		conn.Close()
		delete(b.clients, conn)
	}
}

func (b *Bridge) broadcast(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	evt.Seq = b.seq
	evt.Run = b.runID
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	for conn := range b.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(b.clients, conn)
		}
	}
}

// OnIteration implements planner.Observer.
func (b *Bridge) OnIteration(iteration, tsStates, paStates int) {
	b.broadcast(Event{Kind: "iteration", Iteration: iteration, TSStates: tsStates, PAStates: paStates})
}

// OnPolicyFound implements planner.Observer.
func (b *Bridge) OnPolicyFound(iteration, tsStates, paStates int) {
	b.broadcast(Event{Kind: "policy_found", Iteration: iteration, TSStates: tsStates, PAStates: paStates})
}

// OnLocalPlan implements planner.Observer.
func (b *Bridge) OnLocalPlan(step, treeSize int, duration time.Duration) {
	b.broadcast(Event{
		Kind:       "local_plan",
		Step:       step,
		TreeSize:   treeSize,
		DurationMS: float64(duration) / float64(time.Millisecond),
	})
}

// OnRequestTracked implements planner.Observer.
func (b *Bridge) OnRequestTracked(name string, priority int) {
	b.broadcast(Event{Kind: "request_tracked", Request: name, Priority: priority})
}

// OnStep implements planner.Observer.
func (b *Bridge) OnStep(step int, conf core.Conf, potential int) {
	b.broadcast(Event{Kind: "step", Step: step, X: conf.X, Y: conf.Y, Potential: potential})
}
