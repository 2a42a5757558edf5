//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gdrive-share/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	loadErr    error
	validErr   error
	restore    []func()
}

// SharedConfigContext is reset before each scenario
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		*testCtx = configContext{tempDir: tempDir}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a configuration file "([^"]*)" containing:$`, testCtx.aConfigurationFileContaining)
	ctx.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, testCtx.theEnvironmentVariableIs)
	ctx.Step(`^I load the configuration$`, testCtx.iLoadTheConfiguration)
	ctx.Step(`^the config value "([^"]*)" should be "([^"]*)"$`, testCtx.theConfigValueShouldBe)
	ctx.Step(`^the configuration should be valid$`, testCtx.theConfigurationShouldBeValid)
	ctx.Step(`^the configuration should be invalid mentioning "([^"]*)"$`, testCtx.theConfigurationShouldBeInvalidMentioning)
}

func (s *configContext) aConfigurationFileContaining(name string, content *godog.DocString) error {
	s.configPath = filepath.Join(s.tempDir, name)
	return os.WriteFile(s.configPath, []byte(content.Content), 0600)
}

func (s *configContext) theEnvironmentVariableIs(name, value string) error {
	prev, had := os.LookupEnv(name)
	if err := os.Setenv(name, value); err != nil {
		return err
	}
	// Restored once the scenario has loaded the configuration
	s.restore = append(s.restore, func() {
		if had {
			os.Setenv(name, prev)
		} else {
			os.Unsetenv(name)
		}
	})
	return nil
}

func (s *configContext) iLoadTheConfiguration() error {
	defer func() {
		for _, r := range s.restore {
			r()
		}
		s.restore = nil
	}()

	s.cfg, s.loadErr = config.Load(s.configPath)
	if s.loadErr != nil {
		return fmt.Errorf("failed to load config: %w", s.loadErr)
	}
	s.cfg.ApplyEnv()
	s.validErr = s.cfg.Validate()
	return nil
}

func (s *configContext) theConfigValueShouldBe(key, expected string) error {
	got, err := config.NewConfigManager(s.cfg, s.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s %q, got %q", key, expected, got)
	}
	return nil
}

func (s *configContext) theConfigurationShouldBeValid() error {
	if s.validErr != nil {
		return fmt.Errorf("expected valid configuration, got: %w", s.validErr)
	}
	return nil
}

func (s *configContext) theConfigurationShouldBeInvalidMentioning(text string) error {
	if s.validErr == nil {
		return fmt.Errorf("expected validation error mentioning %q", text)
	}
	if !strings.Contains(s.validErr.Error(), text) {
		return fmt.Errorf("validation error %q does not mention %q", s.validErr, text)
	}
	return nil
}
