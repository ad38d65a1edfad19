// Command lokao serves and operates the neighborhood compatibility advisor.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lokao",
	Short: "Lokao neighborhood compatibility advisor",
	Long: `Lokao scores how well a neighborhood fits a buyer's budget and desired
standard, projects purchase and construction costs, and gates the full report
behind a payment or a pilot CPF token.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, scoreCmd, pilotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
