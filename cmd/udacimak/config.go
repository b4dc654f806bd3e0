package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"udacimak/pkg/config"
	"udacimak/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage udacimak configuration files.

Configuration is read from, in order of priority:
  - Command line flags
  - Environment variables (UDACIMAK_*)
  - .env files
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create a configuration file holding the default values.

The file is created as '.udacimak.yaml' in the current directory unless a
different path is given with --config.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const configHeader = `# udacimak configuration
#
# Every value can be overridden with an environment variable prefixed with
# UDACIMAK_, for example UDACIMAK_DELAY_YOUTUBE=5 or UDACIMAK_SUBTITLES=true.

`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".udacimak.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(ui.Output, "\nNext steps:")
	fmt.Fprintln(ui.Output, "1. Edit the file, for example to set render.target_dir")
	fmt.Fprintln(ui.Output, "2. Run 'udacimak config validate' to check it")
	fmt.Fprintln(ui.Output, "3. Render a course with 'udacimak render <folder>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Output)
	fmt.Fprint(ui.Output, string(data))

	fmt.Fprintln(ui.Output, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(ui.Output, "1. Command line flags")
	fmt.Fprintf(ui.Output, "2. Environment variables (%s_*)\n", config.EnvPrefix)
	if configFile != "" {
		fmt.Fprintf(ui.Output, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(ui.Output, "3. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(ui.Output, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	var warnings []string
	if cfg.Video.Executable != "" {
		if _, err := os.Stat(cfg.Video.Executable); err != nil {
			warnings = append(warnings, fmt.Sprintf("yt-dlp executable not found: %s", cfg.Video.Executable))
		}
	}
	if cfg.Render.AssetsDir != "" {
		if info, err := os.Stat(cfg.Render.AssetsDir); err != nil || !info.IsDir() {
			warnings = append(warnings, fmt.Sprintf("assets directory not found: %s", cfg.Render.AssetsDir))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(ui.Output, "  - %s\n", w)
		}
		fmt.Fprintln(ui.Output)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(ui.Output, "\nConfiguration summary:")
	fmt.Fprintf(ui.Output, "  Target directory: %s\n", cfg.Render.TargetDir)
	fmt.Fprintf(ui.Output, "  YouTube delay: %ds\n", cfg.Render.DelayYoutube)
	fmt.Fprintf(ui.Output, "  Subtitles: %t\n", cfg.Render.Subtitles)
	fmt.Fprintf(ui.Output, "  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Fprintf(ui.Output, "  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Fprintf(ui.Output, "  Video qualities: %v\n", cfg.Video.Qualities)
	fmt.Fprintf(ui.Output, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
