package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leadbook/leadbook/client"
)

const connectTimeout = 10 * time.Second

func newInitCmd() *cobra.Command {
	var (
		initURL    string
		initAPIKey string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up leadbook CLI configuration",
		Long: `Create or update a profile in ~/.leadbook/config.yaml.
Without --url or --api-key the values are prompted for. The connection and
the key are checked before anything is written. --profile selects the
profile to write (default "default"), which becomes the active profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := initURL == "" && initAPIKey == ""
			return runInit(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), initURL, initAPIKey, flagProfile, interactive)
		},
	}

	cmd.Flags().StringVar(&initURL, "url", "", "Server URL (non-interactive mode)")
	cmd.Flags().StringVar(&initAPIKey, "api-key", "", "API key (non-interactive mode)")
	return cmd
}

func runInit(ctx context.Context, out io.Writer, in io.Reader, url, apiKey, profile string, interactive bool) error {
	if interactive {
		fmt.Fprintln(out, "\n  leadbook setup")
		fmt.Fprintln(out)

		reader := bufio.NewReader(in)

		fmt.Fprintf(out, "  Server URL [%s]: ", defaultURL)
		line, _ := reader.ReadString('\n')
		url = strings.TrimSpace(line)

		fmt.Fprint(out, "  API key: ")
		line, _ = reader.ReadString('\n')
		apiKey = strings.TrimSpace(line)
	}

	if url == "" {
		url = defaultURL
	}
	if apiKey == "" {
		return errors.New("API key is required")
	}
	if profile == "" {
		profile = "default"
	}

	ver, err := testConnection(ctx, url, apiKey)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Fprintf(out, "Connected to %s (version %s)\n", url, ver)

	path, err := saveProfile(profile, configProfile{URL: url, APIKey: apiKey})
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(out, "Profile %q saved to %s\n", profile, path)
	if interactive {
		fmt.Fprintln(out, "\n  Next steps:")
		fmt.Fprintln(out, "    leadbook-cli doctor      # check configuration and access")
		fmt.Fprintln(out, "    leadbook-cli lead list   # your leads")
		fmt.Fprintln(out)
	}
	return nil
}

// testConnection checks that the server answers and accepts apiKey, and
// returns the server version.
func testConnection(ctx context.Context, url, apiKey string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	c := client.New(url, client.WithAPIKey(apiKey), client.WithTimeout(connectTimeout))

	health, err := c.Health(ctx)
	if err != nil {
		return "", err
	}
	if _, err := c.Leads.List(ctx, &client.LeadListOptions{}); err != nil {
		return "", fmt.Errorf("checking API key: %w", err)
	}

	if health.Version == "" {
		return "unknown", nil
	}
	return health.Version, nil
}

// saveProfile writes p as the named profile and makes it active. Other
// profiles in an existing file are kept; a flat file is converted into a
// "default" profile first.
func saveProfile(name string, p configProfile) (string, error) {
	path, cfg, err := loadConfigFile()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = &configFile{}
	case err != nil:
		return "", err
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]configProfile)
	}
	if cfg.URL != "" || cfg.APIKey != "" {
		if _, ok := cfg.Profiles["default"]; !ok {
			cfg.Profiles["default"] = configProfile{URL: cfg.URL, APIKey: cfg.APIKey}
		}
		cfg.URL, cfg.APIKey = "", ""
	}

	cfg.Profiles[name] = p
	cfg.ActiveProfile = name

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
