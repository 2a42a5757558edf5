//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gdrive-share/cmd"
	"gdrive-share/infrastructure/config"

	"github.com/cucumber/godog"
)

type setupContext struct {
	tempDir         string
	configPath      string
	originalContent string
	output          bytes.Buffer
	err             error
}

var SharedSetupContext = &setupContext{}

// MockPrompter implements cmd.Prompter for testing
type MockPrompter struct {
	inputResponses    []string
	passwordResponses []string
	confirmResponses  []bool
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	if len(m.inputResponses) == 0 {
		return defaultValue, nil
	}
	response := m.inputResponses[0]
	m.inputResponses = m.inputResponses[1:]
	return response, nil
}

func (m *MockPrompter) Password(message string) (string, error) {
	if len(m.passwordResponses) == 0 {
		return "", fmt.Errorf("no more password responses available for message: %s", message)
	}
	response := m.passwordResponses[0]
	m.passwordResponses = m.passwordResponses[1:]
	return response, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if len(m.confirmResponses) == 0 {
		return defaultValue, nil
	}
	response := m.confirmResponses[0]
	m.confirmResponses = m.confirmResponses[1:]
	return response, nil
}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedSetupContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		*testCtx = setupContext{
			tempDir:    tempDir,
			configPath: filepath.Join(tempDir, "config", "config.yaml"),
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^no config file exists for setup$`, testCtx.noConfigFileExistsForSetup)
	ctx.Step(`^a config file already exists for setup$`, testCtx.aConfigFileAlreadyExistsForSetup)
	ctx.Step(`^I run the setup command with inputs:$`, testCtx.iRunTheSetupCommandWithInputs)
	ctx.Step(`^I decline to overwrite the config$`, testCtx.iDeclineToOverwriteTheConfig)
	ctx.Step(`^the saved config should have "([^"]*)" set to "([^"]*)"$`, testCtx.theSavedConfigShouldHave)
	ctx.Step(`^the existing config should be unchanged$`, testCtx.theExistingConfigShouldBeUnchanged)
}

func (s *setupContext) noConfigFileExistsForSetup() error {
	return nil
}

func (s *setupContext) aConfigFileAlreadyExistsForSetup() error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return err
	}
	s.originalContent = "google:\n  client_id: original-id\n  client_secret: original-secret\n"
	return os.WriteFile(s.configPath, []byte(s.originalContent), 0600)
}

// iRunTheSetupCommandWithInputs maps a | prompt | value | table onto the prompter.
// Prompts starting with "use" are confirmations, "secret" prompts are passwords.
func (s *setupContext) iRunTheSetupCommandWithInputs(table *godog.Table) error {
	prompter := &MockPrompter{}
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		prompt := strings.ToLower(row.Cells[0].Value)
		value := row.Cells[1].Value

		switch {
		case strings.HasPrefix(prompt, "use"):
			prompter.confirmResponses = append(prompter.confirmResponses, strings.ToLower(value) == "y")
		case strings.Contains(prompt, "secret"):
			prompter.passwordResponses = append(prompter.passwordResponses, value)
		default:
			prompter.inputResponses = append(prompter.inputResponses, value)
		}
	}

	s.err = cmd.RunSetupWithPrompter(prompter, s.configPath, &s.output)
	if s.err != nil {
		return fmt.Errorf("setup command failed: %w", s.err)
	}
	return nil
}

func (s *setupContext) iDeclineToOverwriteTheConfig() error {
	s.err = cmd.RunSetupWithPrompter(&MockPrompter{confirmResponses: []bool{false}}, s.configPath, &s.output)
	return s.err
}

func (s *setupContext) theSavedConfigShouldHave(key, expected string) error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	got, err := config.NewConfigManager(cfg, s.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s %q, got %q", key, expected, got)
	}
	return nil
}

func (s *setupContext) theExistingConfigShouldBeUnchanged() error {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}
	if string(data) != s.originalContent {
		return fmt.Errorf("config was modified:\n%s", data)
	}
	return nil
}
