package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"eduassist/internal/api"
	"eduassist/internal/client"
	"eduassist/internal/records"
)

func newTimetableCommand(ctx *commandContext) *cobra.Command {
	timetableCmd := &cobra.Command{
		Use:   "timetable",
		Short: "Import the teaching timetable",
	}

	var scope string
	var day string
	var mode string
	importCmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a timetable grid CSV into the calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read timetable file: %w", err)
			}
			return ctx.withClient(func(apiClient *client.Client) error {
				resp, err := apiClient.ImportTimetable(cmd.Context(), args[0], data, scope, day, mode)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported timetable: %d added, %d replaced, %d skipped\n",
					resp.Summary.Added, resp.Summary.Replaced, resp.Summary.Skipped)
				return nil
			})
		},
	}
	importCmd.Flags().StringVar(&scope, "scope", "", "Import scope (week or day)")
	importCmd.Flags().StringVar(&day, "day", "", "Day name when scope is day")
	importCmd.Flags().StringVar(&mode, "mode", "", "Conflict mode (merge or replace)")

	timetableCmd.AddCommand(importCmd)
	return timetableCmd
}

func newEventsCommand(ctx *commandContext) *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Manage calendar events",
	}

	var from string
	var to string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events (default: today through the next seven days)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				events, err := apiClient.Events(cmd.Context(), from, to)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No events in window")
					return nil
				}
				rows := make([][]string, 0, len(events))
				for _, event := range events {
					rows = append(rows, []string{
						formatEventTime(event),
						event.Title,
						event.Location,
						event.Source,
					})
				}
				table := renderTable(
					[]string{"When", "Title", "Location", "Source"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&from, "from", "", "Window start (YYYY-MM-DD or RFC3339)")
	listCmd.Flags().StringVar(&to, "to", "", "Window end (YYYY-MM-DD or RFC3339)")

	var start, end, location, description string
	var allDay bool
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a calendar event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				event, err := apiClient.AddEvent(cmd.Context(), api.EventRequest{
					Title:       args[0],
					Start:       start,
					End:         end,
					Location:    location,
					Description: description,
					AllDay:      allDay,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created event %s (%s)\n", event.ID, formatEventTime(event))
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&start, "start", "", "Start time (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	addCmd.Flags().StringVar(&end, "end", "", "End time")
	addCmd.Flags().StringVar(&location, "location", "", "Location")
	addCmd.Flags().StringVar(&description, "description", "", "Description")
	addCmd.Flags().BoolVar(&allDay, "all-day", false, "All-day event")
	_ = addCmd.MarkFlagRequired("start")

	eventsCmd.AddCommand(listCmd)
	eventsCmd.AddCommand(addCmd)
	return eventsCmd
}

func formatEventTime(event records.Event) string {
	if event.AllDay {
		return event.Start.Format("2006-01-02") + " (all day)"
	}
	when := event.Start.Format("2006-01-02 15:04")
	if !event.End.IsZero() && event.End.After(event.Start) {
		when += "-" + event.End.Format("15:04")
	}
	return when
}

func newTasksCommand(ctx *commandContext) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage the to-do list",
	}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				tasks, err := apiClient.Tasks(cmd.Context(), all)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(tasks) == 0 {
					fmt.Fprintln(out, "No tasks")
					return nil
				}
				rows := make([][]string, 0, len(tasks))
				for _, task := range tasks {
					rows = append(rows, []string{
						task.ID,
						task.Title,
						task.Due,
						yesNo(task.Done),
					})
				}
				table := renderTable(
					[]string{"ID", "Title", "Due", "Done"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}
	listCmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")

	var due string
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				task, err := apiClient.AddTask(cmd.Context(), api.TaskRequest{
					Title: args[0],
					Due:   due,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %s\n", task.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")

	doneCmd := &cobra.Command{
		Use:   "done <taskID>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				if err := apiClient.CompleteTask(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s done\n", args[0])
				return nil
			})
		},
	}

	tasksCmd.AddCommand(listCmd)
	tasksCmd.AddCommand(addCmd)
	tasksCmd.AddCommand(doneCmd)
	return tasksCmd
}

func newTodayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's schedule and open tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(apiClient *client.Client) error {
				overview, err := apiClient.TodayOverview(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader(fmt.Sprintf("Today %s", overview.Date), colorize) {
					fmt.Fprintln(out, line)
				}
				if len(overview.Events) == 0 {
					fmt.Fprintln(out, "No events today")
				}
				for _, event := range overview.Events {
					line := fmt.Sprintf("%s  %s", formatEventTime(event), event.Title)
					if loc := strings.TrimSpace(event.Location); loc != "" {
						line += "  @ " + loc
					}
					fmt.Fprintln(out, line)
				}

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Open Tasks", colorize) {
					fmt.Fprintln(out, line)
				}
				if len(overview.Tasks) == 0 {
					fmt.Fprintln(out, "No open tasks")
				}
				for _, task := range overview.Tasks {
					line := "- " + task.Title
					if task.Due != "" {
						line += " (due " + task.Due + ")"
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
}
