package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wesm/mailtrends/internal/config"
	"github.com/wesm/mailtrends/internal/fileutil"
	"github.com/wesm/mailtrends/internal/render"
	"github.com/wesm/mailtrends/internal/report"
)

var (
	reportSourceFlags sourceFlags
	reportReportFlags reportFlags
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build a statistics report",
	Long: `Read message headers from the configured source, thread them and print
statistics: volume over time, sizes, top senders, recipients and lists,
mail from and to you, and the longest threads.

Examples:
  mailtrends report --source maildir --path ~/Maildir
  mailtrends report --gmail --username me@gmail.com --me me@gmail.com -o report.html --format html
  mailtrends report --server imap.example.com --username me --mailbox INBOX --start 2024-01-01
  mailtrends report --source mbox --path archive.mbox --filter-out "from:noreply" --format json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportSourceFlags.register(reportCmd)
	reportReportFlags.register(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	reportSourceFlags.apply(cmd, cfg)
	reportReportFlags.apply(cmd, cfg)
	if err := prepareConfig(cfg); err != nil {
		return err
	}
	opts, err := reportOptions(cfg, logger)
	if err != nil {
		return err
	}

	src, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	res, err := report.Run(cmd.Context(), src, opts)
	if err != nil {
		return err
	}
	if res.Skipped > 0 {
		logger.Warn("skipped unparseable messages", "count", res.Skipped)
	}

	return writeReport(cmd.OutOrStdout(), cfg.Report, res)
}

// writeReport renders res to [report] output, or to w when no output file
// is configured.
func writeReport(w io.Writer, rc config.ReportConfig, res *report.Result) error {
	if rc.Output == "" {
		text := render.TextOptions{}
		if f, ok := w.(*os.File); ok {
			text = render.DetectTextOptions(f)
		}
		return render.Write(w, rc.Format, res.Root, text)
	}

	if dir := filepath.Dir(rc.Output); dir != "." {
		if err := fileutil.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	err := fileutil.WriteFile(rc.Output, 0o644, func(f io.Writer) error {
		return render.Write(f, rc.Format, res.Root, render.TextOptions{})
	})
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(w, "Report written to %s (%d messages, %d threads)\n",
		rc.Output, res.Corpus.Len(), len(res.Threads))
	return nil
}
