package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/orrn/ptouch/internal/api"
	"github.com/orrn/ptouch/internal/api/middleware"
	"github.com/orrn/ptouch/internal/archive"
	"github.com/orrn/ptouch/internal/db"
	"github.com/orrn/ptouch/internal/imaging"
	"github.com/orrn/ptouch/internal/ipp"
	"github.com/orrn/ptouch/internal/service"
	"github.com/orrn/ptouch/internal/webhook"
)

const shutdownTimeout = 15 * time.Second

func serveCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP print server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

func (a *app) openStore() (*db.Store, error) {
	if err := os.MkdirAll(filepath.Dir(a.cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return db.Open(db.Config{Path: a.cfg.Database.Path})
}

func (a *app) archiver(store archive.Store) (*archive.Archiver, error) {
	return archive.NewArchiver(store, archive.Config{
		Path:       a.cfg.Database.ArchivePath,
		Days:       a.cfg.Database.ArchiveDays,
		Passphrase: a.cfg.Database.ArchivePassphrase,
	}, archive.WithLogger(a.logger))
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	log := a.logger

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sender := webhook.NewSender(cfg.Webhooks, webhook.WithLogger(log))
	sender.Start()
	defer sender.Stop()

	archiver, err := a.archiver(store)
	if err != nil {
		return err
	}
	archiver.Start()
	defer archiver.Stop()

	auth, err := middleware.NewAuthMiddleware(cfg.Auth)
	if err != nil {
		return err
	}
	if !auth.Enabled() {
		log.Warn("auth.password_hash is empty, the API is unauthenticated")
	}

	client := ipp.New(ipp.WithTimeout(cfg.Polling.RequestTimeout), ipp.WithLogger(log))
	svc := service.New(cfg, client, imaging.NewDecoder(log),
		service.WithJournal(store),
		service.WithNotifier(sender),
		service.WithLogger(log),
	)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Deps{
		Service:     svc,
		Jobs:        store,
		Archiver:    archiver,
		Auth:        auth,
		Logger:      log,
		MaxUploadMB: cfg.Server.MaxUploadMB,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "printers", len(cfg.Printers))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
