package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/hecopilot/copilot-backend/config"
	"github.com/hecopilot/copilot-backend/internal/bootstrap"
	"github.com/hecopilot/copilot-backend/internal/logging"
	"github.com/hecopilot/copilot-backend/internal/sandbox/cronjob"
	"github.com/hecopilot/copilot-backend/internal/sandbox/service"
)

func sweepCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete one batch of expired sandbox files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, svc, db, err := openSandbox(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := svc.Sweep(logging.WithRequestID(ctx, "sweep-cli"))
			if err != nil {
				return err
			}
			log.Info().Int("expired", res.Expired).Int("marked", res.Marked).Int("blob_errors", res.BlobErrors).Msg("sweep finished")
			return nil
		},
	}
}

func scheduleCMD() *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the sandbox sweep on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, svc, db, err := openSandbox(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if spec == "" {
				spec = cfg.Storage.SweepSpec
			}
			sched := cronjob.NewScheduler(svc, spec)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("invalid sweep spec %q: %w", spec, err)
			}

			<-ctx.Done()
			log.Info().Msg("stopping scheduler")
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "cron spec with seconds (default SANDBOX_SWEEP_SPEC)")
	return cmd
}

func openSandbox(ctx context.Context) (*config.Config, *service.SandboxService, *sql.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, nil, nil, fmt.Errorf("DB_DSN is not set")
	}

	db, err := bootstrap.OpenSQL(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	svc, err := bootstrap.NewSandbox(ctx, cfg.Storage, db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return cfg, svc, db, nil
}
