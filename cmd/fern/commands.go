package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/routes"
	chartsroutes "github.com/Ramsey-B/fern/pkg/routes/charts"
	entriesroutes "github.com/Ramsey-B/fern/pkg/routes/entries"
	"github.com/Ramsey-B/fern/pkg/routes/entrystatuses"
	formsroutes "github.com/Ramsey-B/fern/pkg/routes/forms"
	"github.com/Ramsey-B/fern/pkg/routes/health"
)

const shutdownTimeout = 30 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}
}

func serveRun(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, zapLogger, err := commonRun()
	if err != nil {
		return err
	}
	defer zapLogger.Sync() //nolint:errcheck

	a := newApp(cfg, log)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.stop(stopCtx)
	}()
	if err := a.start(ctx, cfg.Database.MigrateOnStart); err != nil {
		return err
	}

	svc, err := a.services()
	if err != nil {
		return err
	}

	checks := map[string]health.Pinger{
		"database": health.PingFunc(func(ctx context.Context) error {
			return a.db.SQL().PingContext(ctx)
		}),
	}
	if a.redis != nil {
		checks["redis"] = a.redis
	}
	checker := health.NewChecker(cfg.Version, checks)

	e := routes.NewServer(routes.ServerConfig{
		ServiceName:  cfg.AppName,
		BodyLimit:    cfg.HTTP.BodyLimit,
		AllowOrigins: cfg.HTTP.AllowOrigins,
		AllowMethods: cfg.HTTP.AllowMethods,
	}, log, routes.Handlers{
		Health:        checker,
		Forms:         formsroutes.NewHandler(svc.forms),
		Entries:       entriesroutes.NewHandler(svc.entries, svc.forms, svc.sessions),
		EntryStatuses: entrystatuses.NewHandler(svc.statuses),
		Charts:        chartsroutes.NewHandler(svc.charts),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           e,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(map[string]any{"addr": server.Addr}).Info("listening")
		checker.SetReady(true)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, zapLogger, err := commonRun()
			if err != nil {
				return err
			}
			defer zapLogger.Sync() //nolint:errcheck

			a := newApp(cfg, log)
			defer a.stop(context.Background())
			if err := a.start(cmd.Context(), true); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func formsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forms",
		Short: "Manage form definitions",
	}

	var watch bool
	importCmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Create or update forms from YAML or JSON definition files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log, zapLogger, err := commonRun()
			if err != nil {
				return err
			}
			defer zapLogger.Sync() //nolint:errcheck

			a := newApp(cfg, log)
			defer a.stop(context.Background())
			if err := a.start(ctx, cfg.Database.MigrateOnStart); err != nil {
				return err
			}
			svc, err := a.services()
			if err != nil {
				return err
			}

			imported, err := svc.forms.Import(ctx, args[0])
			if err != nil {
				return err
			}
			for _, form := range imported {
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d)\n", form.Handle, form.ID)
			}
			if !watch {
				return nil
			}

			return svc.forms.Watch(ctx, args[0], func(form *models.Form) {
				fmt.Fprintf(cmd.OutOrStdout(), "reloaded %s (%d)\n", form.Handle, form.ID)
			})
		},
	}
	importCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and re-import definitions when they change")

	cmd.AddCommand(importCmd)
	return cmd
}

func volumesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volumes",
		Short: "Manage upload volumes",
	}

	var name, storage string
	createCmd := &cobra.Command{
		Use:   "create <handle>",
		Short: "Create a volume and print the upload location source of its root folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := parseStorage(storage)
			if err != nil {
				return err
			}

			cfg, log, zapLogger, err := commonRun()
			if err != nil {
				return err
			}
			defer zapLogger.Sync() //nolint:errcheck

			a := newApp(cfg, log)
			defer a.stop(context.Background())
			if err := a.start(cmd.Context(), cfg.Database.MigrateOnStart); err != nil {
				return err
			}
			svc, err := a.services()
			if err != nil {
				return err
			}

			if name == "" {
				name = args[0]
			}
			root, err := svc.assetsDB.CreateVolume(cmd.Context(), &models.Volume{
				Handle:  args[0],
				Name:    name,
				Storage: storage,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), folderSource(root.ID))
			return nil
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "display name, defaults to the handle")
	createCmd.Flags().StringVar(&storage, "storage", "local", "storage backend: local or gcs")

	cmd.AddCommand(createCmd)
	return cmd
}
