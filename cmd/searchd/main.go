// Command searchd starts the knowledge-graph search service: it wires the
// dig container, brings up the HTTP server, and shuts both down cleanly on
// SIGINT/SIGTERM, following the teacher's cmd/server/main.go shape.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tencent/kgsearch/internal/config"
	"github.com/Tencent/kgsearch/internal/container"
	"github.com/Tencent/kgsearch/internal/runtime"
	"github.com/Tencent/kgsearch/internal/tracing"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.SetOutput(os.Stdout)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	c := container.BuildContainer(runtime.GetContainer())

	err := c.Invoke(func(cfg *config.Config, router *gin.Engine, tracer *tracing.Tracer) error {
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 30 * time.Second
		}

		server := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		}

		ctx, done := context.WithCancel(context.Background())
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		go func() {
			sig := <-signals
			log.Printf("received signal: %v, shutting down", sig)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("server forced to shutdown: %v", err)
			}
			if err := tracer.Cleanup(shutdownCtx); err != nil {
				log.Printf("tracer cleanup failed: %v", err)
			}

			log.Println("server has exited")
			done()
		}()

		log.Printf("search service listening on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}

		<-ctx.Done()
		return nil
	})
	if err != nil {
		log.Fatalf("failed to run search service: %v", err)
	}
}
