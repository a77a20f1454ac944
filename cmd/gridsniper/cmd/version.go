package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the gridsniper CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gridsniper version %s\n", version)
		fmt.Println("Signal-driven grid position ledger")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
