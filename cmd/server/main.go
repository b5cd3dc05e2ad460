package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Pushparaj13811/plant-project-v/config"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
	recordRepo "github.com/Pushparaj13811/plant-project-v/pkg/record/repository"
)

var verbose bool

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "plant-server",
		Short:         "Plant records API with formula-driven derived metrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "recompute",
			Short: "Recompute every stored record and print the report",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(func(app *application) error {
					rep, err := app.runner.Run(cmd.Context(), engine.TableInput, "cli")
					if err != nil {
						return err
					}
					return printJSON(cmd, rep)
				})
			},
		},
		exportCmd(),
		&cobra.Command{
			Use:   "seed",
			Short: "Seed an empty catalog and print its summary",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(func(app *application) error {
					return printJSON(cmd, app.eng.Summary())
				})
			},
		},
	)
	return root
}

func exportCmd() *cobra.Command {
	var out string
	var plantID uint
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write records to an xlsx file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(app *application) error {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				var filter recordRepo.Filter
				if plantID > 0 {
					filter.PlantID = &plantID
				}
				if err := app.records.Export(cmd.Context(), filter, f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				app.log.Info("export written", zap.String("path", out))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "records.xlsx", "output file")
	cmd.Flags().UintVar(&plantID, "plant", 0, "only records of this plant")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setup() (config.AppConfig, *zap.Logger, error) {
	cfg := config.Load()
	log, err := newLogger(cfg.LogLevel, verbose)
	if err != nil {
		return cfg, nil, err
	}
	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		time.Local = loc
	} else {
		log.Warn("unknown TZ, keeping system zone", zap.String("tz", cfg.Timezone))
	}
	if !cfg.EnvFileLoaded {
		log.Debug("no .env file, using process environment")
	}
	return cfg, log, nil
}

func withApp(fn func(*application) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	app, err := build(cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer app.Close()
	if err := fn(app); err != nil {
		log.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

func serve(parent context.Context) error {
	return withApp(func(app *application) error {
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()

		app.log.Info("config", zap.Any("cfg", app.cfg.Redacted()))
		// rows written before a catalog change, or by an older schema, are brought up to date
		app.runner.Trigger(engine.TableInput, "startup")

		errc := make(chan error, 1)
		go func() {
			app.log.Info("listening", zap.String("port", app.cfg.Port))
			errc <- app.echo.Start(":" + app.cfg.Port)
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		app.log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.echo.Shutdown(sctx)
	})
}
