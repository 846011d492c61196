package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"eduassist/internal/client"
	"eduassist/internal/config"
	"eduassist/internal/jobs"
)

type commandContext struct {
	apiFlag    *string
	tokenFlag  *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, tokenFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		tokenFlag:  tokenFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// apiClient builds the daemon API client from flags and config. It returns
// nil when no API address is configured.
func (c *commandContext) apiClient() (*client.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	bind := ""
	if c.apiFlag != nil {
		bind = strings.TrimSpace(*c.apiFlag)
	}
	if bind == "" && cfg != nil {
		bind = strings.TrimSpace(cfg.Paths.APIBind)
	}

	token := ""
	if c.tokenFlag != nil {
		token = strings.TrimSpace(*c.tokenFlag)
	}
	if token == "" && cfg != nil {
		token = cfg.Paths.APIToken
	}

	return client.New(bind, token)
}

// withClient runs fn against the daemon API and fails with guidance when the
// daemon cannot be reached.
func (c *commandContext) withClient(fn func(*client.Client) error) error {
	api, err := c.apiClient()
	if err != nil {
		return err
	}
	if api == nil {
		return fmt.Errorf("daemon API is not configured; set paths.api_bind or pass --api")
	}
	if err := fn(api); err != nil {
		if client.IsUnavailable(err) {
			return fmt.Errorf("connect to daemon: API not reachable; start the daemon with `eduassist start`")
		}
		return err
	}
	return nil
}

// withQueue runs fn with the daemon API when it answers, otherwise with
// direct access to the queue database. Exactly one of the two arguments is
// non-nil.
func (c *commandContext) withQueue(cmd *cobra.Command, fn func(api *client.Client, store *jobs.Store) error) error {
	api, err := c.apiClient()
	if err != nil {
		return err
	}
	if api != nil {
		if _, err := api.Status(cmd.Context()); err == nil {
			return fn(api, nil)
		} else if !client.IsUnavailable(err) {
			return err
		}
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()
	return fn(nil, store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
