package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leadbook/leadbook/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3030"

var (
	apiClient   *client.Client
	flagURL     string
	flagKey     string
	flagFmt     string
	flagProfile string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("leadbook-cli version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("leadbook-cli version %s-dev", version)
}

type configFile struct {
	// Flat format
	URL    string `yaml:"url,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
	// Profile format
	Profiles      map[string]configProfile `yaml:"profiles,omitempty"`
	ActiveProfile string                   `yaml:"active_profile,omitempty"`
}

type configProfile struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "leadbook-cli",
		Short:   "leadbook CLI for managing buyer leads",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			var opts []client.Option
			if flagKey != "" {
				opts = append(opts, client.WithAPIKey(flagKey))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "leadbook server URL (env: LEADBOOK_URL)")
	rootCmd.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: LEADBOOK_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "Config profile from ~/.leadbook/config.yaml")

	rootCmd.AddCommand(newLeadCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newDoctorCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig fills the URL and API key. A flag takes precedence, then
// the environment, then the config file.
func resolveConfig() {
	if flagURL == defaultURL {
		if v := os.Getenv("LEADBOOK_URL"); v != "" {
			flagURL = v
		}
	}
	if flagKey == "" {
		flagKey = os.Getenv("LEADBOOK_API_KEY")
	}

	_, cfg, err := loadConfigFile()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: ignoring ~/.leadbook/config.yaml: %v\n", err)
		}
		return
	}

	resolvedURL, resolvedKey := cfg.resolve(flagProfile)
	if flagURL == defaultURL && resolvedURL != "" {
		flagURL = resolvedURL
	}
	if flagKey == "" && resolvedKey != "" {
		flagKey = resolvedKey
	}
}

// resolve returns the URL and key of the named profile, or of the active
// profile when name is empty, falling back to the flat fields.
func (cfg *configFile) resolve(name string) (string, string) {
	url, key := cfg.URL, cfg.APIKey
	if cfg.Profiles == nil {
		return url, key
	}
	if name == "" {
		name = cfg.ActiveProfile
	}
	if name == "" {
		name = "default"
	}
	if p, ok := cfg.Profiles[name]; ok {
		if p.URL != "" {
			url = p.URL
		}
		if p.APIKey != "" {
			key = p.APIKey
		}
	}
	return url, key
}

// configPath returns the location of the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".leadbook", "config.yaml"), nil
}

// loadConfigFile reads and parses the config file. A missing file is
// reported as an error wrapping fs.ErrNotExist.
func loadConfigFile() (string, *configFile, error) {
	path, err := configPath()
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return path, nil, err
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return path, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return path, &cfg, nil
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
