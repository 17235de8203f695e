package pluginhost

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/webcore-dev/webcore/internal/apperr"
)

// Conn is one established connection to a spawned plugin process. It owns
// the read loop and a pending-request map so concurrent Call invocations
// each get routed their own response, the same correlation pattern the
// host uses for its agent hub's Send/Receive channels.
type Conn struct {
	ws      *websocket.Conn
	pending sync.Map // id string -> chan rpcResponse
	closeMu sync.Mutex
	closed  bool
	writeMu sync.Mutex
}

func newConn(ws *websocket.Conn, sessionID string) *Conn {
	c := &Conn{ws: ws}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer c.Close()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var resp rpcResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			continue
		}
		if chAny, ok := c.pending.LoadAndDelete(resp.ID); ok {
			ch := chAny.(chan rpcResponse)
			ch <- resp
		}
	}
}

// Call sends a request and blocks for its matching response, or until
// timeout elapses.
func (c *Conn) Call(method string, params any, timeout time.Duration) (json.RawMessage, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPluginLoad, "encoding plugin RPC params", err)
	}

	id := uuid.NewString()
	req := rpcRequest{ID: id, Method: method, Params: raw}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPluginLoad, "encoding plugin RPC request", err)
	}

	respCh := make(chan rpcResponse, 1)
	c.pending.Store(id, respCh)
	defer c.pending.Delete(id)

	c.writeMu.Lock()
	writeErr := c.ws.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if writeErr != nil {
		return nil, apperr.Wrap(apperr.KindPluginLoad, "writing plugin RPC request", writeErr)
	}

	select {
	case resp := <-respCh:
		if resp.Error != "" {
			return nil, apperr.Newf(apperr.KindPluginLoad, "plugin RPC %q failed: %s", method, resp.Error)
		}
		return resp.Result, nil
	case <-time.After(timeout):
		return nil, apperr.Newf(apperr.KindPluginLoad, "plugin RPC %q timed out", method)
	}
}

// Close ends the connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.ws.Close()
}
