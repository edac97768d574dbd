package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mysuperai/superai/pkg/envfile"
	"github.com/mysuperai/superai/pkg/util/console"
)

func newEnvCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Inspect and edit the model's build environment file",
	}
	addProjectDirFlag(cmd)
	cmd.AddCommand(
		newEnvListCommand(),
		newEnvSetCommand(),
		newEnvUnsetCommand(),
	)
	return cmd
}

func loadEnvironmentFile() (*envfile.Processor, error) {
	dir := projectDirFlag
	if dir == "" {
		dir = "."
	}
	return envfile.Load(filepath.Join(dir, "environment"))
}

func newEnvListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List build environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			environs, err := loadEnvironmentFile()
			if err != nil {
				return err
			}
			for _, key := range environs.Keys() {
				value, _ := environs.Get(key)
				console.Output(fmt.Sprintf("%s=%s", key, value))
			}
			return nil
		},
	}
}

func newEnvSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY=value",
		Short: "Set a build environment variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			environs, err := loadEnvironmentFile()
			if err != nil {
				return err
			}
			return environs.SetEntry(args[0])
		},
	}
}

func newEnvUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a build environment variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			environs, err := loadEnvironmentFile()
			if err != nil {
				return err
			}
			return environs.Delete(args[0])
		},
	}
}
