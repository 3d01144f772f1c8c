// Command directory runs the cluster directory: the HTTP-fronted tables of
// live simulation nodes, rooms, and environments that route new-room
// requests to the least-loaded node (§4.6). Grounded on roboserver/main.go's
// component-goroutine supervisor.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"roboscapesim/cluster"
	"roboscapesim/httpapi"
	"roboscapesim/shared"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(".env"); err != nil {
		shared.DebugPrint("no .env file loaded: %v", err)
	}
	shared.InitConfig()
	cfg := shared.LoadConfig()

	selfAddr := fmt.Sprintf("%s%s", shared.ExternalIP(), cfg.DirectoryHTTPAddr)

	dir := cluster.NewDirectory()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dir.RunGC(shared.DirectoryGCInterval, shared.DirectoryServerTTL, gctx.Done())
		return nil
	})

	srv := &http.Server{
		Addr:    cfg.DirectoryHTTPAddr,
		Handler: httpapi.NewDirectoryServer(dir, selfAddr).Handler(),
	}
	g.Go(func() error {
		shared.DebugPrint("directory HTTP listening on %s (external %s)", cfg.DirectoryHTTPAddr, selfAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-gctx.Done():
		shared.DebugPrint("a component failed, shutting down directory...")
	case <-sigs:
		shared.DebugPrint("received termination signal, shutting down directory...")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		if err := g.Wait(); err != nil {
			shared.DebugError(err)
		}
		close(done)
	}()

	select {
	case <-done:
		shared.DebugPrint("directory shut down gracefully.")
	case <-time.After(60 * time.Second):
		shared.DebugPrint("timeout waiting for directory shutdown, forcing exit.")
	}
}
