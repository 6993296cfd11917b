package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/stakeroom/server"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	router     *way.Router
	Config     Config
	GameServer *server.GameServer
}

func NewServer(cfg Config) *Server {
	s := &Server{
		Config:     cfg,
		GameServer: server.NewGameServer(server.DirLevels{Dir: cfg.LevelsDir}, cfg.Options()),
	}
	s.routes()
	return s
}

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalln(err)
	}
	cfg.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewServer(cfg).Run(ctx); err != nil {
		log.Fatalln(err)
	}
}

// Run serves until ctx is cancelled, then drains HTTP and stops every room.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              ":" + s.Config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s (ws endpoint %s)", httpSrv.Addr, URI_WS)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		s.GameServer.Shutdown()
		log.Info("server stopped")
		return err
	})
	return g.Wait()
}
