package pluginhost

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/logging"
)

// Server is the loopback callback endpoint external plugin processes dial
// into (spec §4.8 discovery source 3, the platform-specific half). One
// Server instance can host many concurrently-spawned plugin processes;
// each spawn gets its own single-use JWT so a stray or malicious process on
// the same host cannot impersonate a plugin the host didn't launch itself.
//
// Grounded on the host's own agent WebSocket handler: bind a loopback
// listener, upgrade on a single route, authenticate the handshake, then
// hand the connection to a per-session object that owns its own
// request/response correlation.
type Server struct {
	mu       sync.Mutex
	pending  map[string]*pendingSpawn // token -> awaiting handshake
	upgrader websocket.Upgrader
	listener net.Listener
	httpSrv  *http.Server
	addr     string
	log      zerolog.Logger
}

type pendingSpawn struct {
	secret []byte
	connCh chan *Conn
}

// NewServer binds a loopback TCP listener on an OS-assigned port and starts
// serving the plugin callback route in the background. Call Close to stop.
func NewServer() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPluginLoad, "binding plugin host listener", err)
	}

	s := &Server{
		pending:  make(map[string]*pendingSpawn),
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		listener: ln,
		addr:     ln.Addr().String(),
		log:      logging.For("pluginhost"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/plugin/connect", s.handleConnect)
	s.httpSrv = &http.Server{Handler: mux}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("plugin host server stopped")
		}
	}()

	return s, nil
}

// CallbackURL is the ws:// URL a spawned plugin process should dial.
func (s *Server) CallbackURL() string {
	return fmt.Sprintf("ws://%s/plugin/connect", s.addr)
}

// Close stops accepting new plugin connections.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

// issueToken mints a one-time HS256 JWT for a single plugin spawn and
// registers the pending handshake the connect route will validate against.
// Returns the token to pass to the child process and a channel the caller
// blocks on to receive the established Conn.
func (s *Server) issueToken(pluginName string) (token string, wait <-chan *Conn, err error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", nil, apperr.Wrap(apperr.KindPluginLoad, "generating plugin session secret", err)
	}

	jti := hex.EncodeToString(secret[:8])
	claims := jwt.MapClaims{
		"sub": pluginName,
		"jti": jti,
		"exp": time.Now().Add(30 * time.Second).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindPluginLoad, "signing plugin session token", err)
	}

	connCh := make(chan *Conn, 1)
	s.mu.Lock()
	s.pending[jti] = &pendingSpawn{secret: secret, connCh: connCh}
	s.mu.Unlock()

	return signed, connCh, nil
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	jti, _, err := parseJTI(tokenStr)
	if err != nil {
		http.Error(w, "malformed token", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	p, ok := s.pending[jti]
	if ok {
		delete(s.pending, jti)
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown or expired session", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) { return p.secret, nil })
	if err != nil || !token.Valid {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("plugin websocket upgrade failed")
		return
	}

	conn := newConn(wsConn, jti)
	p.connCh <- conn
}

// parseJTI reads the jti claim without verifying the signature, just to
// find which pending session to validate against.
func parseJTI(tokenStr string) (string, jwt.MapClaims, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	_, _, err := parser.ParseUnverified(tokenStr, claims)
	if err != nil {
		return "", nil, err
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return "", nil, fmt.Errorf("token missing jti")
	}
	return jti, claims, nil
}
