// Package cli defines the maparr command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "maparr",
	Short: "MapArr - Docker volume mapping analyzer",
	Long: `MapArr inspects your containers' volume mounts, detects path mapping
conflicts that break hardlinks and atomic moves between media apps, and
serves a dashboard with fix recommendations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./maparr.yml, user config dir, /etc/maparr)")
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand())
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}
