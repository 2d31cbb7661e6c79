package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vrpweave/vrpweave/pkg/provision"
)

var (
	executeMode  bool          // -x, --execute
	parallel     int           // --parallel
	retries      int           // --retries
	retryBackoff time.Duration // --backoff
	cmdTimeout   time.Duration // --timeout
	runDeadline  time.Duration // --deadline
	verifyMode   bool          // --verify
	askPass      bool          // --ask-pass
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Push rendered configuration to the devices",
	Long: `Provision renders a script for every device and delivers the scripts
over SSH, several devices at a time.

Without -x: dry-run (prints each script and stops)
With -x:    connect and push

Devices fail independently. A rejected command stops that device and
leaves its earlier commands applied; the rest of the run continues.
Connection timeouts and refusals are retried, credential failures are
not.

Examples:
  vrpweave -t lab.yaml provision                # Preview all scripts
  vrpweave -t lab.yaml provision -x             # Push everything
  vrpweave -t lab.yaml -d FW1 provision -x      # Push one device
  vrpweave -t lab.yaml provision -x --verify    # Read back interfaces after`,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTopology()
		if err != nil {
			return err
		}
		cat, err := loadCatalogue()
		if err != nil {
			return err
		}

		if askPass {
			fmt.Fprint(os.Stderr, "Device password: ")
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			for _, d := range t.Devices {
				d.Credentials.Password = string(pw)
			}
		}

		if !executeMode {
			for _, d := range t.Devices {
				script, err := cat.Render(d)
				if err != nil {
					return err
				}
				fmt.Printf("=== %s (%s, %d commands) ===\n", bold(d.Name), d.Family, len(script.Commands))
				fmt.Println(script.String())
				fmt.Println()
			}
			fmt.Println(yellow("DRY-RUN: no devices contacted. Use -x to push."))
			return nil
		}

		ctx := context.Background()
		if runDeadline > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runDeadline)
			defer cancel()
		}

		orch := provision.New(provision.Policy{
			Concurrency:    parallel,
			ConnectRetries: retries,
			RetryBackoff:   retryBackoff,
			CommandTimeout: cmdTimeout,
			Verify:         verifyMode,
		})

		fmt.Printf("Provisioning %d device(s)...\n\n", len(t.Devices))
		report, err := orch.Provision(ctx, t, cat)
		if err != nil {
			return err
		}

		printReport(report)
		if !report.AllSucceeded() {
			return fmt.Errorf("%d device(s) did not complete", len(t.Devices)-report.Count(provision.StatusSucceeded))
		}
		return nil
	},
}

func init() {
	provisionCmd.Flags().BoolVarP(&executeMode, "execute", "x", false, "Push changes (default is dry-run)")
	provisionCmd.Flags().IntVar(&parallel, "parallel", 4, "Devices provisioned simultaneously")
	provisionCmd.Flags().IntVar(&retries, "retries", 1, "Extra connection attempts for unreachable devices")
	provisionCmd.Flags().DurationVar(&retryBackoff, "backoff", 3*time.Second, "Delay between connection attempts")
	provisionCmd.Flags().DurationVar(&cmdTimeout, "timeout", 15*time.Second, "Per-command response timeout")
	provisionCmd.Flags().DurationVar(&runDeadline, "deadline", 0, "Overall run deadline (0 = none)")
	provisionCmd.Flags().BoolVar(&verifyMode, "verify", false, "Read back interface config after applying")
	provisionCmd.Flags().BoolVar(&askPass, "ask-pass", false, "Prompt for a password overriding topology credentials")
}

func printReport(report *provision.Report) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Device", "Status", "Commands", "Attempts", "Duration", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, o := range report.Outcomes() {
		status := o.Status.String()
		switch o.Status {
		case provision.StatusSucceeded:
			status = green(status)
		case provision.StatusPartial:
			status = yellow(status)
		default:
			status = red(status)
		}
		detail := ""
		if o.Err != nil {
			detail = firstLine(o.Err.Error())
		}
		table.Append([]string{
			o.Device,
			status,
			fmt.Sprintf("%d/%d", o.CommandsApplied, o.CommandsTotal),
			fmt.Sprintf("%d", o.Attempts),
			o.Duration.Truncate(time.Millisecond).String(),
			detail,
		})
	}
	table.Render()

	fmt.Printf("\n%d succeeded, %d partial, %d failed, %d skipped\n",
		report.Count(provision.StatusSucceeded),
		report.Count(provision.StatusPartial),
		report.Count(provision.StatusFailed),
		report.Count(provision.StatusSkipped))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
