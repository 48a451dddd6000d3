package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"

	"github.com/colonyops/qcdash/internal/core/styles"
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("tracker.base_url", c.Tracker.BaseURL, httpURL),
		criterio.Run("tracker.timeout", c.Tracker.Timeout, positive),
		criterio.Run("status.batch_window", c.Status.BatchWindow, notNegative),
		criterio.Run("status.cache_ttl", c.Status.CacheTTL, notNegative),
		criterio.Run("server.addr", c.Server.Addr, hostPort),
		criterio.Run("server.request_timeout", c.Server.RequestTimeout, positive),
		c.validateMilestones(),
		criterio.Run("ui.theme", c.UI.Theme, knownTheme),
	)
}

func (c *Config) validateMilestones() error {
	var errs criterio.FieldErrorsBuilder

	if !c.Milestones.Scope.IsValid() {
		errs = errs.Append("milestones.scope", fmt.Errorf("must be open or all, got %q", c.Milestones.Scope))
	}

	if c.Milestones.FetchWorkers < 1 {
		errs = errs.Append("milestones.fetch_workers", errors.New("must be at least 1"))
	}

	for i, p := range c.Milestones.Include {
		if !doublestar.ValidatePattern(p) {
			errs = errs.Append(fmt.Sprintf("milestones.include[%d]", i), fmt.Errorf("invalid pattern %q", p))
		}
	}

	seen := make(map[string]bool, len(c.Milestones.Names))
	for i, name := range c.Milestones.Names {
		field := fmt.Sprintf("milestones.names[%d]", i)
		switch {
		case name == "":
			errs = errs.Append(field, errors.New("name is required"))
		case seen[name]:
			errs = errs.Append(field, fmt.Errorf("duplicate milestone %q", name))
		}
		seen[name] = true
	}

	return errs.ToError()
}

func httpURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func knownTheme(name string) error {
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q, available: %s", name, strings.Join(styles.ThemeNames(), ", "))
	}
	return nil
}

func hostPort(s string) error {
	if _, _, err := net.SplitHostPort(s); err != nil {
		return fmt.Errorf("must be host:port: %w", err)
	}
	return nil
}

func positive(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}

func notNegative(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("cannot be negative")
	}
	return nil
}
