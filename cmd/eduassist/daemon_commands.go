package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"eduassist/internal/api"
	"eduassist/internal/client"
	"eduassist/internal/config"
	"eduassist/internal/daemonctl"
	"eduassist/internal/deps"
	"eduassist/internal/jobs"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the eduassist daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				cmd.Context(),
				apiClient,
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the eduassist daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the eduassist daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			stop, err := daemonctl.StopAndTerminate(ctx.configValue(), 5*time.Second)
			switch {
			case errors.Is(err, daemonctl.ErrDaemonNotRunning):
			case err != nil:
				return err
			default:
				if stop.ForcedKill && stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(
				cmd.Context(),
				apiClient,
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show system and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(ctx, cmd)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func runStatusCommand(ctx *commandContext, cmd *cobra.Command) error {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	apiClient, err := ctx.apiClient()
	if err != nil {
		return err
	}

	if apiClient != nil {
		status, err := apiClient.Status(cmd.Context())
		if err == nil {
			renderDaemonStatus(cmd, status, colorize)
			return nil
		}
		if !client.IsUnavailable(err) {
			return err
		}
	}

	// Daemon is down; report local state instead.
	cfg := ctx.configValue()
	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "Not running (start with `eduassist start`)", colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range dependencyLines(localDependencyStatuses(cfg), colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Queue Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		fmt.Fprintln(stdout, renderStatusLine("Queue", statusError, err.Error(), colorize))
		return nil
	}
	defer store.Close()
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	stringStats := make(map[string]int, len(stats))
	for status, count := range stats {
		stringStats[string(status)] = count
	}
	renderQueueStats(cmd, stringStats)
	return nil
}

func renderDaemonStatus(cmd *cobra.Command, status api.DaemonStatus, colorize bool) {
	stdout := cmd.OutOrStdout()

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
	workflowKind := statusOK
	workflowDetail := "Running"
	if !status.Workflow.Running {
		workflowKind = statusWarn
		workflowDetail = "Stopped"
	}
	if msg := strings.TrimSpace(status.Workflow.LastError); msg != "" {
		workflowKind = statusWarn
		workflowDetail = fmt.Sprintf("%s (last error: %s)", workflowDetail, msg)
	}
	fmt.Fprintln(stdout, renderStatusLine("Workflow", workflowKind, workflowDetail, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Queue DB", statusInfo, status.QueueDBPath, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Records DB", statusInfo, status.RecordsDBPath, colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range dependencyLines(status.Dependencies, colorize) {
		fmt.Fprintln(stdout, line)
	}

	if len(status.Workflow.StageHealth) > 0 {
		fmt.Fprintln(stdout)
		for _, line := range renderSectionHeader("Stages", colorize) {
			fmt.Fprintln(stdout, line)
		}
		for _, stage := range status.Workflow.StageHealth {
			kind := statusOK
			detail := "Ready"
			if !stage.Ready {
				kind = statusWarn
				detail = stage.Detail
				if strings.TrimSpace(detail) == "" {
					detail = "Not ready"
				}
			}
			fmt.Fprintln(stdout, renderStatusLine(stage.Name, kind, detail, colorize))
		}
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Queue Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	renderQueueStats(cmd, status.Workflow.QueueStats)
}

func renderQueueStats(cmd *cobra.Command, stats map[string]int) {
	stdout := cmd.OutOrStdout()
	rows := buildQueueStatusRows(stats)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "Queue is empty")
		return
	}
	table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
	fmt.Fprintln(stdout, table)
}

func dependencyLines(statuses []api.DependencyStatus, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		if dep.Available {
			detail := strings.TrimSpace(dep.Detail)
			if detail == "" {
				detail = "Ready"
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, detail, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		lines = append(lines, renderStatusLine(dep.Name, statusWarn, detail, colorize))
	}
	return lines
}

func localDependencyStatuses(cfg *config.Config) []api.DependencyStatus {
	checks := deps.Check(cfg)
	out := make([]api.DependencyStatus, 0, len(checks))
	for _, check := range checks {
		out = append(out, api.DependencyStatus{
			Name:      check.Name,
			Available: check.Available,
			Detail:    check.Detail,
		})
	}
	return out
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
