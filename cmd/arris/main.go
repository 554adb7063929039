package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"arris/internal/app"
	"arris/internal/arris"
	"arris/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when there is none.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.Load(defaults["config_path"], defaults["base_dir"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates an ArrisApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Edit", "Show").
func newApp(operation string) (*app.ArrisApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewArrisApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "arris",
	Short:        "Photo metadata editor",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Time Zone:  %s\n", cfg.General.DefaultTimeZone)
		fmt.Printf("Language:   %s\n", cfg.General.DefaultLanguage)
		fmt.Printf("Codec:      %s\n", cfg.Codec.Type)
		fmt.Printf("Jpegtran:   %s\n", cfg.Transform.JpegtranPath)
		fmt.Printf("Journal:    %s %s\n", cfg.Journal.Type, cfg.Journal.DataDir)
		return nil
	},
}

// edit command
var editCmd = &cobra.Command{
	Use:   "edit [DIR]",
	Short: "Edit the pictures of a directory interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp("Edit")
		if err != nil {
			return err
		}
		defer a.Close()

		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return a.Edit(ctx, dir, recursive, os.Stdin, os.Stdout, app.IsInteractive(os.Stdin))
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show [PATH]",
	Short: "Print the metadata of a picture or directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Show")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "."
		if len(args) > 0 {
			target = args[0]
		}

		infos, err := a.Show(cmd.Context(), target)
		if err != nil {
			return err
		}

		if len(infos) == 0 {
			fmt.Println("No pictures found.")
			return nil
		}

		for _, fi := range infos {
			fmt.Println(fi.Path)
			printMetadata(fi.Metadata)
			if fi.Captured != nil {
				fmt.Printf("  %-12s %s\n", "captured", fi.Captured.Format("2006-01-02 15:04:05"))
			}
		}
		return nil
	},
}

func printMetadata(md *arris.Metadata) {
	for _, f := range arris.AllFields {
		var value string
		switch f {
		case arris.FieldDateTime:
			if md.DateTime != nil {
				value = arris.FormatXMPDate(*md.DateTime)
			}
		case arris.FieldTags:
			value = strings.Join(md.Tags, ", ")
		default:
			if p := md.Text(f); p != nil {
				value = *p
			}
		}
		if value != "" {
			fmt.Printf("  %-12s %s\n", f, value)
		}
	}
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View save history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		commits, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(commits) == 0 {
			fmt.Println("No saves recorded.")
			return nil
		}

		for _, c := range commits {
			fmt.Println(app.FormatCommit(c))
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().BoolP("recursive", "r", false, "Include pictures in subdirectories")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of saves to show")
}
