package command

// root.go defines the yamdbctl root command and the database handle shared
// by every subcommand.

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"yamdb/database"
	"yamdb/internal/config"
	"yamdb/internal/logging"
)

// openDB is replaced in tests.
var openDB = func() (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return database.OpenGorm(cfg)
}

var db *gorm.DB

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "yamdbctl",
		Short: "yamdbctl - YaMDb management commands",
		Long: `yamdbctl administers a YaMDb database directly:
- apply schema migrations
- create superusers and change roles
- import categories, genres and titles from JSON

Connection settings come from the same environment variables as the API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			db = conn
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if db == nil {
				return nil
			}
			err := database.Close(db)
			db = nil
			return err
		},
	}

	root.AddCommand(newMigrateCmd(), newCreateSuperuserCmd(), newSetRoleCmd(), newSeedCmd())
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var successColor = color.New(color.FgGreen)

// success prints a green confirmation line.
func success(cmd *cobra.Command, format string, args ...any) {
	successColor.Fprintf(cmd.OutOrStdout(), "✓ "+format+"\n", args...)
}
