package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/strand/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to .strand/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ".strand/config.yaml"
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
