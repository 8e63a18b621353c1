package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wesm/mailtrends/internal/config"
)

// sourceFlags override [source], [imap] and [filter] mailboxes.
type sourceFlags struct {
	source    string
	path      string
	server    string
	imapPort  int
	username  string
	starttls  bool
	noTLS     bool
	gmail     bool
	mailboxes []string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.source, "source", "", "source type: imap, maildir, emlx, mbox or snapshot")
	fs.StringVar(&f.path, "path", "", "path of a maildir, emlx, mbox or snapshot source")
	fs.StringVar(&f.server, "server", "", "IMAP server hostname (implies --source imap)")
	fs.IntVar(&f.imapPort, "imap-port", 0, "IMAP server port (default: 993 for TLS, 143 otherwise)")
	fs.StringVar(&f.username, "username", "", "IMAP username")
	fs.BoolVar(&f.starttls, "starttls", false, "use STARTTLS instead of implicit TLS")
	fs.BoolVar(&f.noTLS, "no-tls", false, "disable TLS (plain connection, not recommended)")
	fs.BoolVar(&f.gmail, "gmail", false, "Gmail preset: imap.gmail.com, [Gmail]/All Mail, system labels ignored")
	fs.StringSliceVar(&f.mailboxes, "mailbox", nil, "mailbox to read (repeatable; default: all)")
}

// apply copies the flags the user set onto c.
func (f *sourceFlags) apply(cmd *cobra.Command, c *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("source") {
		c.Source.Type = f.source
	}
	if fs.Changed("path") {
		c.Source.Path = f.path
	}
	if fs.Changed("server") {
		c.IMAP.Host = f.server
		if !fs.Changed("source") {
			c.Source.Type = config.SourceIMAP
		}
	}
	if fs.Changed("imap-port") {
		c.IMAP.Port = f.imapPort
	}
	if fs.Changed("username") {
		c.IMAP.Username = f.username
	}
	if fs.Changed("starttls") && f.starttls {
		c.IMAP.STARTTLS = true
		c.IMAP.TLS = false
	}
	if fs.Changed("no-tls") && f.noTLS {
		c.IMAP.TLS = false
		c.IMAP.STARTTLS = false
	}
	if fs.Changed("gmail") {
		c.Source.Gmail = f.gmail
	}
	if fs.Changed("mailbox") {
		c.Filter.Mailboxes = f.mailboxes
	}
}

// reportFlags override [filter] and [report].
type reportFlags struct {
	filterLabels string
	filterOut    string
	me           []string
	detectMe     bool
	start        string
	end          string
	timezone     string
	top          int
	split        int
	format       string
	output       string
	record       string
	maxMessages  int
	randomSubset bool
	seed         uint64
}

func (f *reportFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.filterLabels, "filter-labels", "", `label exclusion spec, e.g. "-Archive,Spam"`)
	fs.StringVar(&f.filterOut, "filter-out", "", `content filter, e.g. "from:noreply,list:announce"`)
	fs.StringSliceVar(&f.me, "me", nil, "your address (repeatable)")
	fs.BoolVar(&f.detectMe, "detect-me", false, "guess your address when --me is not given")
	fs.StringVar(&f.start, "start", "", "first day of the report (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "last day of the report (YYYY-MM-DD, inclusive)")
	fs.StringVar(&f.timezone, "timezone", "", "time zone for dates (default: local)")
	fs.IntVar(&f.top, "top", 0, "rows per table")
	fs.IntVar(&f.split, "split-threshold", 0, "split subject-merged threads with this many children (0 disables)")
	fs.StringVar(&f.format, "format", "", "output format: text, html or json")
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	fs.StringVar(&f.record, "record", "", "record fetched headers to this snapshot file")
	fs.IntVar(&f.maxMessages, "max-messages", 0, "stop after this many messages")
	fs.BoolVar(&f.randomSubset, "random-subset", false, "sample --max-messages at random instead of the first ones")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed for --random-subset")
}

// apply copies the flags the user set onto c.
func (f *reportFlags) apply(cmd *cobra.Command, c *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("filter-labels") {
		c.Filter.Labels = f.filterLabels
	}
	if fs.Changed("filter-out") {
		c.Filter.Out = f.filterOut
	}
	if fs.Changed("me") {
		c.Filter.Me = f.me
	}
	if fs.Changed("detect-me") {
		c.Filter.DetectMe = f.detectMe
	}
	if fs.Changed("start") {
		c.Report.Start = f.start
	}
	if fs.Changed("end") {
		c.Report.End = f.end
	}
	if fs.Changed("timezone") {
		c.Report.Timezone = f.timezone
	}
	if fs.Changed("top") {
		c.Report.Top = f.top
	}
	if fs.Changed("split-threshold") {
		c.Report.SplitThreshold = f.split
	}
	if fs.Changed("format") {
		c.Report.Format = f.format
	}
	if fs.Changed("output") {
		c.Report.Output = f.output
	}
	if fs.Changed("record") {
		c.Report.Record = f.record
	}
	if fs.Changed("max-messages") {
		c.Report.MaxMessages = f.maxMessages
	}
	if fs.Changed("random-subset") {
		c.Report.RandomSubset = f.randomSubset
	}
	if fs.Changed("seed") {
		c.Report.Seed = f.seed
	}
}
