package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eduassist/internal/api"
	"eduassist/internal/client"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var limit int
	var component string
	var jobID int64

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				resp, err := apiClient.Logs(cmd.Context(), client.LogQuery{
					Tail:      true,
					Limit:     limit,
					Component: component,
					JobID:     jobID,
				})
				if err != nil {
					return err
				}
				for _, event := range resp.Events {
					fmt.Fprintln(out, formatLogEvent(event, colorize))
				}
				if !follow {
					return nil
				}

				cursor := resp.Next
				for {
					page, err := apiClient.Logs(cmd.Context(), client.LogQuery{
						Since:     cursor,
						Limit:     limit,
						Follow:    true,
						Component: component,
						JobID:     jobID,
					})
					if err != nil {
						if errors.Is(err, context.Canceled) {
							return nil
						}
						return err
					}
					for _, event := range page.Events {
						fmt.Fprintln(out, formatLogEvent(event, colorize))
					}
					if page.Next > cursor {
						cursor = page.Next
					}
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new log events")
	cmd.Flags().IntVarP(&limit, "limit", "n", 200, "Maximum events per fetch")
	cmd.Flags().StringVar(&component, "component", "", "Filter by component")
	cmd.Flags().Int64Var(&jobID, "job", 0, "Filter by job id")
	return cmd
}

func formatLogEvent(event api.LogEvent, colorize bool) string {
	level := strings.ToUpper(event.Level)
	if colorize {
		switch level {
		case "ERROR":
			level = ansiRed + level + ansiReset
		case "WARN":
			level = ansiYellow + level + ansiReset
		case "DEBUG":
			level = ansiBlue + level + ansiReset
		}
	}

	var b strings.Builder
	b.WriteString(event.Timestamp.Local().Format("15:04:05"))
	b.WriteString(" ")
	b.WriteString(level)
	if event.Component != "" {
		b.WriteString(" [")
		b.WriteString(event.Component)
		b.WriteString("]")
	}
	if event.JobID > 0 {
		fmt.Fprintf(&b, " job=%d", event.JobID)
	}
	b.WriteString(" ")
	b.WriteString(event.Message)
	for key, value := range event.Fields {
		fmt.Fprintf(&b, " %s=%s", key, value)
	}
	return b.String()
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.NotifyTest(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case resp.Message != "":
					fmt.Fprintln(out, resp.Message)
				case resp.Sent:
					fmt.Fprintln(out, "Test notification sent")
				default:
					fmt.Fprintln(out, "Notification not sent")
				}
				return nil
			})
		},
	}
}
