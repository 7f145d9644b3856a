// Command printpoold runs the receipt printer pool daemon: an HTTP API
// over a priority job queue dispatching to ESC/POS printers on ethernet,
// USB and bluetooth transports.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/yiqunxu123/retail-pos-sub000/internal/api"
	"github.com/yiqunxu123/retail-pos-sub000/internal/api/middleware"
	"github.com/yiqunxu123/retail-pos-sub000/internal/config"
	"github.com/yiqunxu123/retail-pos-sub000/internal/db"
	"github.com/yiqunxu123/retail-pos-sub000/internal/pool"
	"github.com/yiqunxu123/retail-pos-sub000/internal/transport"
	"github.com/yiqunxu123/retail-pos-sub000/internal/webhook"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LoadFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	setupLogging(cfg.Logging)

	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	sender := transport.NewDeviceSender()
	defer sender.Close()

	p := pool.New(cfg.Pool, sender)

	if err := restorePrinters(p, store); err != nil {
		log.Fatalf("Failed to restore printers: %v", err)
	}

	recorder := db.NewRecorder(store)
	defer recorder.Attach(p)()

	hooks := webhook.NewSender(store, cfg.Webhooks)
	hooks.Start()
	defer hooks.Stop()
	defer hooks.Attach(p)()

	auth, err := middleware.NewAuthMiddleware(store)
	if err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(p, store, auth)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Printer pool daemon listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Forced shutdown: %v", err)
	}
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// restorePrinters re-registers persisted printers into the pool on
// startup. Registration order follows creation order, so least-loaded
// tiebreaks stay stable across restarts.
func restorePrinters(p *pool.Pool, store *db.Store) error {
	printers, err := store.ListPrinters(context.Background())
	if err != nil {
		return err
	}

	for _, rec := range printers {
		enabled := rec.Enabled
		cfg := pool.PrinterConfig{
			ID:         rec.ID,
			Name:       rec.Name,
			Type:       transport.PrinterType(rec.Type),
			IP:         rec.IP,
			Port:       rec.Port,
			VendorID:   rec.VendorID,
			ProductID:  rec.ProductID,
			MACAddress: rec.MACAddress,
			PrintWidth: rec.PrintWidth,
			Enabled:    &enabled,
		}
		if !p.AddPrinter(cfg) {
			log.Warnf("Skipping persisted printer %s: invalid configuration", rec.ID)
		}
	}

	if len(printers) > 0 {
		log.Infof("Restored %d printers from database", len(printers))
	}
	return nil
}
