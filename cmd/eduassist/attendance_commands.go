package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"eduassist/internal/api"
	"eduassist/internal/client"
)

func newAttendanceCommand(ctx *commandContext) *cobra.Command {
	attendanceCmd := &cobra.Command{
		Use:   "attendance",
		Short: "Record and report class attendance",
	}

	attendanceCmd.AddCommand(newAttendanceCommandCommand(ctx))
	attendanceCmd.AddCommand(newAttendanceSessionCommand(ctx))
	attendanceCmd.AddCommand(newAttendanceMarkCommand(ctx))
	attendanceCmd.AddCommand(newAttendanceSummaryCommand(ctx))
	attendanceCmd.AddCommand(newAttendanceExportCommand(ctx))

	return attendanceCmd
}

func newAttendanceCommandCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "command <instruction...>",
		Short: "Run a natural-language attendance instruction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instruction := strings.Join(args, " ")
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.AttendanceCommand(cmd.Context(), instruction)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, resp.Message)
				if resp.FilePath != "" {
					fmt.Fprintf(out, "Saved to %s\n", resp.FilePath)
				}
				return nil
			})
		},
	}
}

func newAttendanceSessionCommand(ctx *commandContext) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "session <class> <subject>",
		Short: "Ensure an attendance session exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.AttendanceSession(cmd.Context(), api.SessionRequest{
					Class:   args[0],
					Subject: args[1],
					Date:    date,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %d ready for %s on %s\n",
					resp.Session.ID, resp.Session.Subject, resp.Session.Date)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Session date (YYYY-MM-DD, default today)")
	return cmd
}

func newAttendanceMarkCommand(ctx *commandContext) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "mark <class> <subject> <present-rolls>",
		Short: "Mark attendance from a present-roll spec like 1-5,8,12",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.AttendanceMark(cmd.Context(), api.MarkRequest{
					Class:   args[0],
					Subject: args[1],
					Present: args[2],
					Date:    date,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d of %d present on %s\n",
					resp.Result.Present, resp.Result.Total, resp.Result.Date)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Session date (YYYY-MM-DD, default today)")
	return cmd
}

func newAttendanceSummaryCommand(ctx *commandContext) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "summary <class>",
		Short: "Show per-student attendance percentages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.AttendanceSummary(cmd.Context(), args[0], subject)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Rows) == 0 {
					fmt.Fprintln(out, "No attendance recorded yet")
					return nil
				}
				rows := make([][]string, 0, len(resp.Rows))
				for _, row := range resp.Rows {
					rows = append(rows, []string{
						fmt.Sprintf("%d", row.Roll),
						row.Name,
						fmt.Sprintf("%d/%d", row.Present, row.Total),
						fmt.Sprintf("%.1f%%", row.Percent),
					})
				}
				table := renderTable(
					[]string{"Roll", "Name", "Attended", "Percent"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Restrict to one subject")
	return cmd
}

func newAttendanceExportCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var output string

	cmd := &cobra.Command{
		Use:   "export <class>",
		Short: "Export the attendance register as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				writer := cmd.OutOrStdout()
				if path := strings.TrimSpace(output); path != "" {
					file, err := os.Create(path)
					if err != nil {
						return fmt.Errorf("create output file: %w", err)
					}
					defer file.Close()
					if err := apiClient.AttendanceExport(cmd.Context(), args[0], subject, file); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote register to %s\n", path)
					return nil
				}
				return apiClient.AttendanceExport(cmd.Context(), args[0], subject, writer)
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Restrict to one subject")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the CSV to a file instead of stdout")
	return cmd
}
