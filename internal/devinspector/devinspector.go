// Package devinspector is an optional, development-only HTTP API exposing
// the running application's internal state — registered commands, open
// windows, loaded plugins, recent IPC calls — for debugging. The
// orchestrator does not start it; it runs only when a caller invokes Start.
package devinspector

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/bridge"
	"github.com/webcore-dev/webcore/internal/commands"
	"github.com/webcore-dev/webcore/internal/logging"
	"github.com/webcore-dev/webcore/internal/plugins"
	"github.com/webcore-dev/webcore/internal/windows"
)

// State is everything the inspector can report on. All fields are pointers
// to the live core objects; handlers only ever read from them.
type State struct {
	Commands *commands.Registry
	Windows  *windows.Manager
	Bridge   *bridge.Bridge
	Loader   *plugins.Loader
}

// Server is the dev inspector's HTTP surface.
type Server struct {
	httpSrv *http.Server
	addr    string
	log     zerolog.Logger
}

// Start binds a loopback listener and serves the inspector routes.
func Start(state State) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindFatal, "binding dev inspector listener", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/commands", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"commands": state.Commands.Names()})
	})
	router.GET("/windows", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"windows": state.Windows.List(), "main": state.Windows.MainLabel()})
	})
	router.GET("/plugins", func(c *gin.Context) {
		names := make([]string, 0)
		for _, p := range state.Loader.Initialized() {
			names = append(names, p.Name())
		}
		c.JSON(http.StatusOK, gin.H{"plugins": names})
	})
	router.GET("/recent-commands", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"recent": state.Bridge.RecentCommands()})
	})

	s := &Server{
		httpSrv: &http.Server{Handler: router},
		addr:    ln.Addr().String(),
		log:     logging.For("devinspector"),
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("dev inspector stopped")
		}
	}()

	s.log.Info().Str("addr", s.addr).Msg("dev inspector started")
	return s, nil
}

// Addr is the loopback address the inspector is listening on.
func (s *Server) Addr() string { return s.addr }

// Close stops the inspector server.
func (s *Server) Close() error {
	return s.httpSrv.Close()
}
