package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"rb-go/internal/app"
	"rb-go/internal/config"
	"rb-go/internal/prompt"
	"rb-go/internal/restorer"
	"rb-go/internal/secret"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer Close.
// operation identifies the CLI command being run (e.g. "Browse", "QuickRestore").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run 'rb config init' first): %w", err)
	}

	a, err := app.New(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// run wires an App into a command body and maps user cancellation to a
// clean zero exit.
func run(operation string, fn func(ctx context.Context, a *app.App) error) error {
	a, err := newApp(operation)
	if err != nil {
		return err
	}

	err = fn(context.Background(), a)
	if cerr := a.Close(err); cerr != nil && err == nil {
		err = cerr
	}

	if errors.Is(err, restorer.ErrCancelled) {
		fmt.Fprintln(os.Stderr, "Cancelled.")
		return nil
	}
	return err
}

var rootCmd = &cobra.Command{
	Use:   "rb",
	Short: "Browse and restore restic snapshots",
	Long: `rb is an interactive restore browser for restic repositories.

Run it with no arguments to pick a snapshot, browse its file tree,
accumulate paths, and restore them. Use 'rb quick' for non-interactive
whole-snapshot restores.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Browse", func(ctx context.Context, a *app.App) error {
			return a.Browse(ctx)
		})
	},
}

// quick command
var quickCmd = &cobra.Command{
	Use:   "quick SNAPSHOT_ID [TARGET]",
	Short: "Restore a whole snapshot without prompts",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) > 1 {
			target = args[1]
		}
		return run("QuickRestore", func(ctx context.Context, a *app.App) error {
			return a.QuickRestore(ctx, args[0], target)
		})
	},
}

// snapshots command
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List snapshots in the repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("ListSnapshots", func(ctx context.Context, a *app.App) error {
			snapshots, err := a.Snapshots(ctx)
			if err != nil {
				return err
			}

			if len(snapshots) == 0 {
				fmt.Println("No snapshots found.")
				return nil
			}

			for _, sn := range snapshots {
				fmt.Printf("%-10s  %s  %-12s  %s\n",
					sn.ShortID,
					sn.Time.Format("2006-01-02 15:04:05"),
					sn.Hostname,
					strings.Join(sn.Paths, ", "),
				)
			}
			return nil
		})
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the configured paths and apply retention",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run("Backup", func(ctx context.Context, a *app.App) error {
			_, err := a.Backup(ctx)
			return err
		})
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded rb operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		return run("GetHistory", func(ctx context.Context, a *app.App) error {
			ops, err := a.History(limit)
			if err != nil {
				return err
			}

			if len(ops) == 0 {
				fmt.Println("No operations recorded.")
				return nil
			}

			for _, op := range ops {
				duration := ""
				if op.FinishedAt.Valid {
					d := op.FinishedAt.Time.Sub(op.StartedAt)
					duration = d.Truncate(time.Millisecond).String()
				}
				fmt.Printf("%-15s  %s  %-10s  %s\n",
					op.Operation,
					op.StartedAt.Format("2006-01-02 15:04:05"),
					op.Status,
					duration,
				)
			}
			return nil
		})
	},
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

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Set repository.url and guard.host, then run 'rb secret init'.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Repository:  %s\n", cfg.Repository.URL)
		fmt.Printf("Guard:       %s:%d\n", cfg.Guard.Host, cfg.Guard.Port)
		fmt.Printf("Selector:    %s\n", cfg.Selector.Mode)
		return nil
	},
}

// secret command
var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the encrypted repository password",
}

var secretInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the local encryption identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		store := secret.NewStore(cfg.Secret)
		if err := store.Init(); err != nil {
			return fmt.Errorf("initializing secret store: %w", err)
		}

		fmt.Printf("Identity written to %s\n", cfg.Secret.IdentityPath)
		fmt.Println("Store the repository password with 'rb secret set'.")
		return nil
	},
}

var secretSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the repository password",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		p := prompt.New(os.Stdin, os.Stderr)
		password, err := p.Password("Repository password")
		if err != nil {
			return err
		}
		if password == "" {
			return fmt.Errorf("password must not be empty")
		}

		store := secret.NewStore(cfg.Secret)
		if err := store.Set(password); err != nil {
			return fmt.Errorf("storing password: %w", err)
		}

		fmt.Printf("Password stored at %s\n", cfg.Secret.PasswordPath)
		return nil
	},
}

// readConfig loads the config without constructing a full App. Used by
// commands that must work before the repository is reachable.
func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run 'rb config init' first): %w", err)
	}
	return cfg, nil
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// secret subcommands
	secretCmd.AddCommand(secretInitCmd)
	secretCmd.AddCommand(secretSetCmd)

	// root commands
	rootCmd.AddCommand(quickCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(secretCmd)
}
