package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"eduassist/internal/api"
	"eduassist/internal/client"
	"eduassist/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage the generation queue",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	jobsCmd.AddCommand(newJobsResetCommand(ctx))
	jobsCmd.AddCommand(newJobsHealthCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued generation jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd, func(apiClient *client.Client, store *jobs.Store) error {
				var items []api.Job
				if apiClient != nil {
					listed, err := apiClient.Jobs(cmd.Context(), listStatuses)
					if err != nil {
						return err
					}
					items = listed
				} else {
					var statuses []jobs.Status
					for _, statusStr := range listStatuses {
						statuses = append(statuses, jobs.Status(statusStr))
					}
					stored, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					items = api.FromJobs(stored)
				}

				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Kind", "Topic", "Status", "Created"},
					buildJobRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <jobID>",
		Short: "Show one job as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withQueue(cmd, func(apiClient *client.Client, store *jobs.Store) error {
				if apiClient != nil {
					job, err := apiClient.Job(cmd.Context(), id)
					if err != nil {
						return err
					}
					return writeJSON(cmd, job)
				}
				job, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}
				return writeJSON(cmd, api.FromJob(job))
			})
		},
	}
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [jobID...]",
		Short: "Retry failed jobs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseJobID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			return ctx.withQueue(cmd, func(apiClient *client.Client, store *jobs.Store) error {
				out := cmd.OutOrStdout()
				if apiClient != nil {
					if len(ids) == 0 {
						return errors.New("specify at least one job id")
					}
					for _, id := range ids {
						if err := apiClient.RetryJob(cmd.Context(), id); err != nil {
							fmt.Fprintf(out, "Job %d: %v\n", id, err)
							continue
						}
						fmt.Fprintf(out, "Job %d reset for retry\n", id)
					}
					return nil
				}

				if len(ids) == 0 {
					updated, err := store.RetryFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Retried %d failed jobs\n", updated)
					return nil
				}
				for _, id := range ids {
					updated, err := store.RetryFailed(cmd.Context(), id)
					if err != nil {
						return err
					}
					if updated > 0 {
						fmt.Fprintf(out, "Job %d reset for retry\n", id)
					} else {
						fmt.Fprintf(out, "Job %d is not in failed state\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <jobID>",
		Short: "Remove one job from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withQueue(cmd, func(apiClient *client.Client, store *jobs.Store) error {
				if apiClient != nil {
					if err := apiClient.RemoveJob(cmd.Context(), id); err != nil {
						return err
					}
				} else {
					removed, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("job %d not found", id)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed job %d\n", id)
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withQueue(cmd, func(apiClient *client.Client, store *jobs.Store) error {
				out := cmd.OutOrStdout()
				var removed int64
				var err error
				switch {
				case clearCompleted:
					if apiClient != nil {
						removed, err = apiClient.ClearJobs(cmd.Context(), "completed")
					} else {
						removed, err = store.ClearCompleted(cmd.Context())
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d completed jobs\n", removed)
				case clearFailed:
					if apiClient != nil {
						removed, err = apiClient.ClearJobs(cmd.Context(), "failed")
					} else {
						removed, err = store.ClearFailed(cmd.Context())
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d failed jobs\n", removed)
				default:
					if apiClient != nil {
						removed, err = apiClient.ClearJobs(cmd.Context(), "")
					} else {
						removed, err = store.Clear(cmd.Context())
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d jobs\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed jobs")
	return cmd
}

func newJobsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight jobs to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd, func(apiClient *client.Client, store *jobs.Store) error {
				var updated int64
				var err error
				if apiClient != nil {
					updated, err = apiClient.ResetStuck(cmd.Context())
				} else {
					updated, err = store.ResetStuckProcessing(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d jobs\n", updated)
				return nil
			})
		},
	}
}

func newJobsHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd, func(apiClient *client.Client, store *jobs.Store) error {
				var health api.QueueHealth
				if apiClient != nil {
					resp, err := apiClient.Health(cmd.Context())
					if err != nil {
						return err
					}
					health = resp.Queue
				} else {
					summary, err := store.Health(cmd.Context())
					if err != nil {
						return err
					}
					health = api.FromQueueHealth(summary)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nPending: %d\nProcessing: %d\nFailed: %d\nReview: %d\nCompleted: %d\n",
					health.Total,
					health.Pending,
					health.Processing,
					health.Failed,
					health.Review,
					health.Completed,
				)
				return nil
			})
		},
	}
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return id, nil
}
