package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"maparr/internal/config"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively write a maparr.yml config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			questions := []*survey.Question{
				{
					Name:     "port",
					Prompt:   &survey.Input{Message: "Dashboard port:", Default: cfg.Server.Port},
					Validate: survey.Required,
				},
				{
					Name:   "dataDir",
					Prompt: &survey.Input{Message: "Data directory (database, history):", Default: cfg.Server.DataDir},
				},
				{
					Name:   "sock",
					Prompt: &survey.Input{Message: "Docker socket path:", Default: cfg.Docker.Sock},
				},
				{
					Name: "logLevel",
					Prompt: &survey.Select{
						Message: "Log level:",
						Options: []string{"debug", "info", "warn", "error"},
						Default: cfg.Log.Level,
					},
				},
			}

			answers := struct {
				Port     string
				DataDir  string
				Sock     string
				LogLevel string
			}{}
			if err := survey.Ask(questions, &answers); err != nil {
				return err
			}

			cfg.Server.Port = answers.Port
			cfg.Server.DataDir = answers.DataDir
			cfg.Docker.Sock = answers.Sock
			cfg.Log.Level = answers.LogLevel

			target := cfgFile
			if target == "" {
				target = "./maparr.yml"
			}
			if err := cfg.Save(target); err != nil {
				return err
			}
			fmt.Println("Wrote", target)
			return nil
		},
	}
}
