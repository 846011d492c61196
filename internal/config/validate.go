package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Validate ensures the configuration is usable. Providers may both be
// unconfigured; generation then degrades at request time rather than
// blocking daemon startup.
func (c *Config) Validate() error {
	if err := c.validateBind(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateTimetable(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBind() error {
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q is not a host:port address: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Generation.MaxSlides < c.Generation.DefaultSlides {
		return errors.New("generation.max_slides must be >= generation.default_slides")
	}
	if err := ensurePositiveMap(map[string]int{
		"generation.default_slides":  c.Generation.DefaultSlides,
		"generation.default_marks":   c.Generation.DefaultMarks,
		"generation.max_sets":        c.Generation.MaxSets,
		"generation.set_concurrency": c.Generation.SetConcurrency,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTimetable() error {
	start, err := time.Parse("15:04", c.Timetable.DayStart)
	if err != nil {
		return fmt.Errorf("timetable.day_start %q must be HH:MM", c.Timetable.DayStart)
	}
	end, err := time.Parse("15:04", c.Timetable.DayEnd)
	if err != nil {
		return fmt.Errorf("timetable.day_end %q must be HH:MM", c.Timetable.DayEnd)
	}
	if !end.After(start) {
		return errors.New("timetable.day_end must be after timetable.day_start")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	// Topic is optional; the notification service degrades to a noop.
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
