package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Provisioner creates the system accounts of a tenant.
type Provisioner interface {
	Provision(ctx context.Context, tenantID int64) (int, error)
}

// Deps opens the backends used by the commands. Each opener returns a
// release func that the command calls when it is done.
type Deps struct {
	Provisioner func(ctx context.Context) (Provisioner, func(), error)
	Jobs        func() (*JobsCLI, error)
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(deps Deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "booksctl",
		Short: "Operational helpers for the books posting engine",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newProvisionCommand(deps), newJobsCommand(deps))

	return rootCmd
}

func newProvisionCommand(deps Deps) *cobra.Command {
	var tenantID int64

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the missing system accounts of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Provisioner == nil {
				return fmt.Errorf("provision: database not configured")
			}
			p, release, err := deps.Provisioner(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			created, err := p.Provision(cmd.Context(), tenantID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tenant %d: %d system accounts created\n", tenantID, created)
			return nil
		},
	}

	cmd.Flags().Int64Var(&tenantID, "tenant", 0, "tenant id (required)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func newJobsCommand(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect background jobs",
	}

	var tenantID int64
	trigger := &cobra.Command{
		Use:       "trigger <job>",
		Short:     "Enqueue a job now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: JobNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJobs(deps, func(c *JobsCLI) error {
				info, err := c.Trigger(cmd.Context(), args[0], tenantID)
				if err != nil {
					return err
				}
				if info == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s already queued this hour\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", args[0], info.ID, info.Queue)
				return nil
			})
		},
	}
	trigger.Flags().Int64Var(&tenantID, "tenant", 0, "tenant id, 0 runs for every tenant")

	var size int
	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Show queue depth and scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJobs(deps, func(c *JobsCLI) error {
				stats, err := c.InspectQueue()
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), stats)
				scheduled, err := c.ListScheduled(size)
				if err != nil {
					return err
				}
				for _, t := range scheduled {
					fmt.Fprintf(cmd.OutOrStdout(), "scheduled %s %s at %s\n", t.Type, t.ID, t.NextProcessAt.UTC().Format("2006-01-02T15:04:05Z"))
				}
				return nil
			})
		},
	}
	inspect.Flags().IntVar(&size, "size", 10, "number of scheduled tasks to list")

	cmd.AddCommand(trigger, inspect)
	return cmd
}

func withJobs(deps Deps, fn func(*JobsCLI) error) error {
	if deps.Jobs == nil {
		return fmt.Errorf("jobs: redis not configured")
	}
	c, err := deps.Jobs()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func printStats(w io.Writer, s QueueStats) {
	fmt.Fprintf(w, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n", s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry)
}
