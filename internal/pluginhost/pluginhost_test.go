package pluginhost

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifestParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plugin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: sample
version: "1.0.0"
dependencies: ["core"]
entry: "./sample-plugin"
permissions: ["fs:read"]
`), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", m.Name)
	assert.Equal(t, []string{"core"}, m.Dependencies)
	assert.Equal(t, "./sample-plugin", m.Entry)
}

func TestLoadManifestRejectsMissingNameOrEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plugin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1.0.0"`), 0o644))

	_, err := LoadManifest(path)
	assert.Error(t, err)
}

// TestServerHandshakeAndRPCRoundTrip drives the whole callback protocol
// without a real subprocess: it dials the server directly with a raw
// gorilla/websocket client standing in for the plugin process, using the
// token issueToken hands out, then exercises a full Call round trip from
// the host side against that simulated plugin.
func TestServerHandshakeAndRPCRoundTrip(t *testing.T) {
	srv, err := NewServer()
	require.NoError(t, err)
	defer srv.Close()

	token, wait, err := srv.issueToken("sample")
	require.NoError(t, err)

	wsURL := "ws" + srv.CallbackURL()[len("ws"):] + "?token=" + token
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer clientConn.Close()

	var hostConn *Conn
	select {
	case hostConn = <-wait:
	case <-time.After(2 * time.Second):
		t.Fatal("server never delivered the connection")
	}
	defer hostConn.Close()

	// Simulate the plugin process answering a single RPC call.
	go func() {
		_, data, err := clientConn.ReadMessage()
		if err != nil {
			return
		}
		var req rpcRequest
		_ = json.Unmarshal(data, &req)
		resp := rpcResponse{ID: req.ID, Result: json.RawMessage(`{"ok":true}`)}
		payload, _ := json.Marshal(resp)
		_ = clientConn.WriteMessage(websocket.TextMessage, payload)
	}()

	result, err := hostConn.Call(methodInitialize, initializeParams{AppName: "demo"}, 2*time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(result))
}

func TestRejectsUnknownToken(t *testing.T) {
	srv, err := NewServer()
	require.NoError(t, err)
	defer srv.Close()

	wsURL := "ws" + srv.CallbackURL()[len("ws"):] + "?token=not-a-real-token"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, 401, resp.StatusCode)
	}
}
