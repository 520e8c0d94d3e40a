package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"maparr/pkg/version"
)

func newVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version.Version())
				return
			}
			fmt.Printf("MapArr %s\n", version.Version())
			fmt.Printf("Commit: %s\n", version.Commit())
			fmt.Printf("Built: %s\n", version.BuildDate())
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "show only the version number")
	return cmd
}
