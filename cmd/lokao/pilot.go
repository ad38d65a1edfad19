package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var pilotCmd = &cobra.Command{
	Use:   "pilot",
	Short: "Inspect and administer the pilot program",
}

var pilotMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print pilot window and feedback metrics",
	RunE:  runPilotMetrics,
}

var pilotReleaseCmd = &cobra.Command{
	Use:   "release-cpf [cpf]",
	Short: "Free a CPF so it can generate a new pilot report",
	Args:  cobra.ExactArgs(1),
	RunE:  runPilotRelease,
}

func init() {
	pilotCmd.AddCommand(pilotMetricsCmd, pilotReleaseCmd)
}

func runPilotMetrics(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.pilot.Metrics(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd, m)
}

func runPilotRelease(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.pilot.ReleaseCPF(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := printJSON(cmd, res); err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("release cpf: %s", res.Reason)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
