// Package server exposes a running copy over HTTP: the current state as JSON
// and a websocket that pushes every state change.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/D3f0/dbglue/internal/state"
	"github.com/D3f0/dbglue/internal/utils"
)

// Message is what the monitor sends to clients.
type Message struct {
	Type  string                   `json:"type"`
	Event *state.Event             `json:"event,omitempty"`
	State *state.CopyStateSnapshot `json:"state,omitempty"`
}

const (
	messageSnapshot = "state_snapshot"
	messageEvent    = "state_event"
)

// Monitor serves the run state of one copy
type Monitor struct {
	state    *state.CopyState
	addr     string
	logger   *utils.Logger
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool
	writeMu   sync.Mutex // serializes websocket writes

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a monitor for copyState listening on addr (":8080").
func NewMonitor(copyState *state.CopyState, addr string, logger *utils.Logger) *Monitor {
	if logger == nil {
		logger = utils.NewSilentLogger()
	}
	return &Monitor{
		state:   copyState,
		addr:    addr,
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool {
				return true // the monitor is a local read-only view
			},
		},
	}
}

// Handler returns the monitor routes.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", m.handleIndex)
	mux.HandleFunc("/api/state", m.handleAPIState)
	mux.HandleFunc("/ws", m.handleWebSocket)
	return mux
}

// Start subscribes to state changes and serves in the background. The
// server stops when ctx is done or Shutdown is called.
func (m *Monitor) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.addr, err)
	}
	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	m.state.Subscribe(m)
	m.logger.Info("Monitor available at http://%s", listener.Addr())

	go func() {
		if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("Monitor server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = m.Shutdown(context.Background())
	}()
	return nil
}

// Addr returns the bound address once started.
func (m *Monitor) Addr() string {
	if m.listener == nil {
		return m.addr
	}
	return m.listener.Addr().String()
}

// Shutdown unsubscribes, closes every websocket and stops the server.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.state.Unsubscribe(m)

	m.clientsMu.Lock()
	for conn := range m.clients {
		_ = conn.Close()
		delete(m.clients, conn)
	}
	m.clientsMu.Unlock()

	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

// OnStateChange implements the Listener interface
func (m *Monitor) OnStateChange(_ *state.CopyState, event state.Event) {
	m.broadcast(event)
}

func (m *Monitor) snapshotMessage() Message {
	snapshot := m.state.GetSnapshot()
	return Message{Type: messageSnapshot, State: &snapshot}
}

// handleAPIState serves the current state as JSON
func (m *Monitor) handleAPIState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(m.snapshotMessage())
}

// handleWebSocket sends a snapshot on connect, then every change until the
// client goes away.
func (m *Monitor) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Debug("WebSocket upgrade error: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	m.writeMu.Lock()
	err = conn.WriteJSON(m.snapshotMessage())
	if err == nil {
		// register under writeMu so no event can slip in before the snapshot
		m.clientsMu.Lock()
		m.clients[conn] = true
		m.clientsMu.Unlock()
	}
	m.writeMu.Unlock()
	if err != nil {
		m.logger.Debug("Error sending initial state: %v", err)
		return
	}

	// Clients only listen; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			m.clientsMu.Lock()
			delete(m.clients, conn)
			m.clientsMu.Unlock()
			return
		}
	}
}

// broadcast sends an event to every client. Events that change the table
// list or a final status carry a full snapshot instead.
func (m *Monitor) broadcast(event state.Event) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.clientsMu.RLock()
	if len(m.clients) == 0 {
		m.clientsMu.RUnlock()
		return
	}
	connections := make([]*websocket.Conn, 0, len(m.clients))
	for conn := range m.clients {
		connections = append(connections, conn)
	}
	m.clientsMu.RUnlock()

	message := Message{Type: messageEvent, Event: &event}
	switch event.Type {
	case state.EventOperationStatus, state.EventOperationCompleted, state.EventTableAdded, state.EventTableFinished:
		message = m.snapshotMessage()
	}

	var failed []*websocket.Conn
	for _, conn := range connections {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(message); err != nil {
			failed = append(failed, conn)
		}
	}

	if len(failed) > 0 {
		m.clientsMu.Lock()
		for _, conn := range failed {
			delete(m.clients, conn)
			_ = conn.Close()
		}
		m.clientsMu.Unlock()
	}
}

// handleIndex serves a minimal page that renders the websocket feed
func (m *Monitor) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>dbglue monitor</title>
  <style>
    body { font-family: -apple-system, 'Segoe UI', Arial, sans-serif; background: #f5f5f5; color: #333; margin: 20px; }
    table { border-collapse: collapse; width: 100%; background: #fff; }
    th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; }
    .completed { color: #34c759; } .aborted { color: #ff3b30; } .skipped { color: #999; }
  </style>
</head>
<body>
  <h1>dbglue <span id="status">connecting</span></h1>
  <p id="summary"></p>
  <table>
    <thead><tr><th>#</th><th>Table</th><th>Status</th><th>Rows</th><th>Batches</th><th>Errors</th></tr></thead>
    <tbody id="tables"></tbody>
  </table>
  <script>
    let current = null;
    function cls(status) {
      if (status === 'completed' || status === 'aborted') return status;
      return status.startsWith('skipped') ? 'skipped' : '';
    }
    function render(s) {
      document.getElementById('status').textContent = s.status;
      const sum = s.summary;
      document.getElementById('summary').textContent =
        sum.syncedRows + ' rows, ' + sum.completedTables + ' completed, ' +
        sum.abortedTables + ' aborted, ' + sum.skippedTables + ' skipped of ' + sum.totalTables;
      const body = document.getElementById('tables');
      body.innerHTML = '';
      for (const t of s.tables) {
        const tr = document.createElement('tr');
        for (const v of [t.index + 1, t.name, t.status, t.syncedRows + ' / ' + t.totalRows, t.batchesDone, (t.errors || []).map(e => e.message).join('; ')]) {
          const td = document.createElement('td');
          td.textContent = v;
          tr.appendChild(td);
        }
        tr.children[2].className = cls(t.status);
        body.appendChild(tr);
      }
    }
    const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
    ws.onmessage = (e) => {
      const msg = JSON.parse(e.data);
      if (msg.type === 'state_snapshot') { current = msg.state; render(current); return; }
      if (!current || !msg.event) return;
      const ev = msg.event, t = current.tables[ev.tableIndex];
      if (ev.type === 'table_progress' && t) { t.syncedRows = ev.data.syncedRows; t.batchesDone = ev.data.batches; }
      if (ev.type === 'table_status' && t) { t.status = ev.data.newStatus; }
      render(current);
    };
    ws.onclose = () => { document.getElementById('status').textContent += ' (disconnected)'; };
  </script>
</body>
</html>`
