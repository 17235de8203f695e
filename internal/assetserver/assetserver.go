// Package assetserver is the external collaborator spec §6.3 names: "serves
// a directory with single-page-app fallback; one-line wrapper." The
// orchestrator (C12) starts one of these when an asset directory is given
// and no explicit dev URL is configured (an asset directory takes priority
// over inline HTML), then navigates the main window at its base URL.
package assetserver

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/logging"
)

// Server serves a built frontend directory over loopback HTTP, falling
// back to index.html for any path that doesn't match a file on disk (the
// standard SPA client-side-routing accommodation).
type Server struct {
	httpSrv *http.Server
	addr    string
	log     zerolog.Logger
}

// Start binds a loopback listener on an OS-assigned port and begins
// serving dir in the background.
func Start(dir string) (*Server, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, apperr.Wrap(apperr.KindFatal, "asset directory unavailable", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindFatal, "binding asset server listener", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.NoRoute(func(c *gin.Context) {
		requested := filepath.Join(dir, filepath.Clean(c.Request.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			c.File(requested)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})
	router.Static("/assets", filepath.Join(dir, "assets"))

	s := &Server{
		httpSrv: &http.Server{Handler: router},
		addr:    ln.Addr().String(),
		log:     logging.For("assetserver"),
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("asset server stopped")
		}
	}()

	s.log.Info().Str("dir", dir).Str("addr", s.addr).Msg("asset server started")
	return s, nil
}

// BaseURL is the http:// origin the main window should navigate to.
func (s *Server) BaseURL() string {
	return "http://" + s.addr
}

// Close stops the server.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}
