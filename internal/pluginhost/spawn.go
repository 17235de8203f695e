package pluginhost

import (
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/webcore-dev/webcore/internal/apperr"
)

// handshakeTimeout bounds how long the host waits for a freshly-spawned
// plugin process to dial back and complete the WebSocket handshake.
const handshakeTimeout = 10 * time.Second

// Spawn launches the external plugin artifact named by manifest.Entry
// (resolved relative to dir) as a subprocess, waits for it to dial back
// over the Server's loopback callback, and returns a Conn wired to it.
//
// The child authenticates with a single-use token passed via environment
// rather than a command-line argument, so it never shows up in a process
// listing (ps) on the host.
func Spawn(srv *Server, dir string, manifest Manifest) (*Conn, error) {
	entry := manifest.Entry
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(dir, entry)
	}

	token, wait, err := srv.issueToken(manifest.Name)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(entry)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"WEBCORE_PLUGIN_CALLBACK_URL="+srv.CallbackURL(),
		"WEBCORE_PLUGIN_TOKEN="+token,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, apperr.Wrap(apperr.KindPluginLoad, "starting plugin process "+manifest.Name, err)
	}

	select {
	case conn := <-wait:
		return conn, nil
	case <-time.After(handshakeTimeout):
		_ = cmd.Process.Kill()
		return nil, apperr.Newf(apperr.KindPluginLoad, "plugin %q did not connect within %s", manifest.Name, handshakeTimeout)
	}
}
