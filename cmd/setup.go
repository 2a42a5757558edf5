package cmd

import (
	"fmt"
	"io"
	"os"

	"gdrive-share/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Password(message string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Password(message string) (string, error) {
	result := ""
	if err := survey.AskOne(&survey.Password{Message: message}, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command asks for the OAuth client of your Google Cloud project (either
a downloaded credentials file or the client ID and secret), the account name
tokens are cached under, and the default upload folder.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, cfgFile, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out io.Writer) error {
	if configPath == "" {
		configPath = config.DefaultPath
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm(fmt.Sprintf("%s already exists. Overwrite?", configPath), false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to gdrive-share setup!")
	fmt.Fprintln(out)

	cfg := config.DefaultConfig()

	if err := promptCredentials(prompter, cfg); err != nil {
		return err
	}

	if err := promptAccount(prompter, cfg); err != nil {
		return err
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	fmt.Fprintln(out, "Run 'gdrive-share auth' to authorize access.")
	return nil
}

func promptCredentials(prompter Prompter, cfg *config.Config) error {
	useFile, err := prompter.Confirm("Use a downloaded OAuth credentials file?", true)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}

	if useFile {
		credentials, err := prompter.Input("Path to Google credentials file?", "credentials.json")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if credentials == "" {
			credentials = "credentials.json"
		}
		cfg.Google.CredentialsFile = credentials
		return nil
	}

	clientID, err := prompter.Input("OAuth client ID?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if clientID == "" {
		return fmt.Errorf("client ID is required")
	}
	cfg.Google.ClientID = clientID

	secret, err := prompter.Password("OAuth client secret?")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if secret == "" {
		return fmt.Errorf("client secret is required")
	}
	cfg.Google.ClientSecret = secret

	return nil
}

func promptAccount(prompter Prompter, cfg *config.Config) error {
	user, err := prompter.Input("Account name to cache the token under?", "default")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Google.UserName = user

	folder, err := prompter.Input("Google Drive folder ID for uploads (empty for My Drive root)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Google.FolderID = folder

	return nil
}
