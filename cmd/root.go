package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/lyfeline/internal/config"
	"github.com/abhisek/lyfeline/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lyfeline",
	Short: "Vaping education backend",
	Long:  "Lyfeline serves lessons, AI-generated quizzes, points, ranks and a rewards shop.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if envFile == "" {
			return config.LoadDotEnv()
		}
		return config.LoadDotEnv(envFile)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN: postgres:// URL or SQLite path (overrides LYFELINE_DATABASE_URL)")
	rootCmd.PersistentFlags().String("env-file", "", "Load environment variables from this file (default .env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDSN returns the database DSN using --db (highest priority), then
// the configured database URL, then the default SQLite path.
func resolveDSN(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if store.IsPostgres(p) {
			return p, nil
		}
		return p, store.EnsureDir(p)
	}
	if dsn := config.FromEnv().DatabaseURL; dsn != "" {
		return dsn, nil
	}
	return store.DefaultDBPath()
}

// openStore opens the database selected by resolveDSN.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dsn, err := resolveDSN(cmd)
	if err != nil {
		return nil, err
	}
	return store.OpenContext(cmd.Context(), dsn)
}
