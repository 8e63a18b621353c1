package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/mailtrends/internal/api"
	"github.com/wesm/mailtrends/internal/config"
	"github.com/wesm/mailtrends/internal/report"
	"github.com/wesm/mailtrends/internal/scheduler"
)

var (
	serveSourceFlags sourceFlags
	serveReportFlags reportFlags
	servePort        int
	serveBind        string
	serveSchedule    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report over HTTP and refresh it on a schedule",
	Long: `Build the report once, then serve it until interrupted:

  GET  /             HTML report
  GET  /report.json  report tree as JSON
  GET  /report.txt   plain text report (?width=N)
  GET  /status       report and refresh status
  GET  /health       liveness
  POST /refresh      rebuild the report now (API key protected when set)

Configure a refresh schedule in config.toml:
  [server]
  refresh_schedule = "0 6 * * *"   # 6:00 AM daily (cron format)

Cron format: minute hour day-of-month month day-of-week
  Examples:
    0 6 * * *     = 6:00 AM daily
    */30 * * * *  = Every 30 minutes
    0 0 * * 0     = Midnight on Sundays

Use Ctrl+C to stop the server gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveSourceFlags.register(serveCmd)
	serveReportFlags.register(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default: [server] api_port)")
	serveCmd.Flags().StringVar(&serveBind, "bind", "", "bind address (default: [server] bind_addr)")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", "refresh cron expression (default: [server] refresh_schedule)")
	rootCmd.AddCommand(serveCmd)
}

func applyServeFlags(cmd *cobra.Command, c *config.Config) {
	serveSourceFlags.apply(cmd, c)
	serveReportFlags.apply(cmd, c)
	fs := cmd.Flags()
	if fs.Changed("port") {
		c.Server.APIPort = servePort
	}
	if fs.Changed("bind") {
		c.Server.BindAddr = serveBind
	}
	if fs.Changed("schedule") {
		c.Server.RefreshSchedule = serveSchedule
	}
}

// newRefresher returns a function that runs the pipeline against a freshly
// opened source and publishes the result to srv.
func newRefresher(c *config.Config, opts report.Options, srv *api.Server) scheduler.RefreshFunc {
	return func(ctx context.Context) error {
		src, err := openSource(c, opts.Logger)
		if err != nil {
			return err
		}
		res, err := report.Run(ctx, src, opts)
		if err != nil {
			return err
		}
		srv.Publish(res)
		return nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	applyServeFlags(cmd, cfg)
	if err := prepareConfig(cfg); err != nil {
		return err
	}
	if err := cfg.Server.ValidateSecure(); err != nil {
		return err
	}
	opts, err := reportOptions(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var srv *api.Server
	refresh := func(ctx context.Context) error {
		return newRefresher(cfg, opts, srv)(ctx)
	}
	sched := scheduler.New(refresh).WithLogger(logger)
	srv = api.NewServer(cfg.Server, sched, logger)

	fmt.Println("Building initial report...")
	if err := refresh(ctx); err != nil {
		_ = srv.Shutdown(context.Background())
		return fmt.Errorf("initial report: %w", err)
	}

	if err := sched.SetSchedule(cfg.Server.RefreshSchedule); err != nil {
		_ = srv.Shutdown(context.Background())
		return err
	}
	sched.Start()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	bindAddr := cfg.Server.BindAddr
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}
	fmt.Printf("mailtrends server started\n")
	fmt.Printf("  Report: http://%s/\n", net.JoinHostPort(bindAddr, strconv.Itoa(cfg.Server.APIPort)))
	if st := sched.Status(); st.Schedule != "" {
		fmt.Printf("  Next refresh: %s\n", st.NextRun.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-serverErr:
		logger.Error("report server error", "error", err)
		runErr = err
	}

	fmt.Println("Shutting down report server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("report server shutdown error", "error", err)
	}

	select {
	case <-sched.Stop().Done():
		fmt.Println("Shutdown complete.")
	case <-time.After(30 * time.Second):
		fmt.Println("Shutdown timed out after 30 seconds.")
	}
	return runErr
}
