// Package daemonctl manages the daemon lifecycle from the CLI: detached
// launches, API readiness polling, and pidfile-based termination.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"eduassist/internal/client"
	"eduassist/internal/config"
)

// ErrDaemonNotRunning reports that no daemon process could be found.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
}

// StartState classifies the outcome of EnsureStarted.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
	StartStateRequested      StartState = "start_requested"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
}

// StopResult captures daemon stop orchestration state.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Launch starts a detached daemon process running `eduassist serve`.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"serve"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// EnsureStarted reports a running daemon or launches one and waits for its
// API to answer. A nil api client (no bind configured) degrades to a pidfile
// liveness check.
func EnsureStarted(ctx context.Context, api *client.Client, cfg *config.Config, executablePath string, opts LaunchOptions, timeout time.Duration) (StartResult, error) {
	if running(ctx, api, cfg) {
		return StartResult{State: StartStateAlreadyRunning}, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if running(ctx, api, cfg) {
			return StartResult{State: StartStateStarted, Launched: true}, nil
		}
		select {
		case <-ctx.Done():
			return StartResult{}, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return StartResult{State: StartStateRequested, Launched: true}, nil
}

// StopAndTerminate signals the daemon via its pidfile and waits for the
// process to exit, escalating to SIGKILL after timeout.
func StopAndTerminate(cfg *config.Config, timeout time.Duration) (StopResult, error) {
	pid, err := ReadPID(cfg)
	if err != nil {
		return StopResult{}, err
	}
	if !processAlive(pid) {
		_ = os.Remove(pidPath(cfg))
		return StopResult{}, ErrDaemonNotRunning
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return StopResult{PID: pid}, fmt.Errorf("signal daemon: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return StopResult{PID: pid}, nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return StopResult{PID: pid}, fmt.Errorf("kill daemon: %w", err)
	}
	return StopResult{PID: pid, ForcedKill: true}, nil
}

// ReadPID reads the daemon pid from the pidfile in the log directory.
func ReadPID(cfg *config.Config) (int, error) {
	path := pidPath(cfg)
	if path == "" {
		return 0, ErrDaemonNotRunning
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrDaemonNotRunning
		}
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pidfile %s is malformed", path)
	}
	return pid, nil
}

func pidPath(cfg *config.Config) string {
	if cfg == nil || strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(cfg.Paths.LogDir, "eduassist.pid")
}

func running(ctx context.Context, api *client.Client, cfg *config.Config) bool {
	if api != nil {
		if status, err := api.Status(ctx); err == nil {
			return status.Running
		}
		return false
	}
	pid, err := ReadPID(cfg)
	if err != nil {
		return false
	}
	return processAlive(pid)
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
