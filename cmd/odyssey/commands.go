package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-backoffice/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-backoffice/internal/app"
	"github.com/odyssey-erp/odyssey-backoffice/internal/platform/db"
)

const usage = `usage:
  odyssey                              run the http server
  odyssey migrate                      apply database migrations
  odyssey jobs trigger NAME [MAX_AGE]  enqueue a job (drafts:purge)
  odyssey jobs stats                   print default queue counters`

// runCommand handles the operational subcommands and returns the exit code.
func runCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, out io.Writer, args []string) int {
	switch {
	case len(args) == 1 && args[0] == "migrate":
		if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			return 1
		}
		fmt.Fprintln(out, "migrations applied")
		return 0
	case len(args) >= 2 && args[0] == "jobs":
		return runJobs(ctx, cfg, logger, out, args[1:])
	default:
		fmt.Fprintln(out, usage)
		return 2
	}
}

func runJobs(ctx context.Context, cfg *app.Config, logger *slog.Logger, out io.Writer, args []string) int {
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		logger.Error("jobs cli", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
	}()

	switch {
	case args[0] == "trigger" && (len(args) == 2 || len(args) == 3):
		var maxAge time.Duration
		if len(args) == 3 {
			if maxAge, err = time.ParseDuration(args[2]); err != nil {
				fmt.Fprintf(out, "invalid max age %q\n", args[2])
				return 2
			}
		}
		info, err := jobsCLI.Trigger(ctx, args[1], maxAge)
		if err != nil {
			logger.Error("trigger job", slog.String("job", args[1]), slog.Any("error", err))
			return 1
		}
		fmt.Fprintf(out, "enqueued %s as %s\n", info.Type, info.ID)
		return 0
	case args[0] == "stats" && len(args) == 1:
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			logger.Error("inspect queue", slog.Any("error", err))
			return 1
		}
		fmt.Fprintf(out, "%s pending=%d active=%d scheduled=%d retry=%d failed=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Failed)
		return 0
	default:
		fmt.Fprintln(out, usage)
		return 2
	}
}
