package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/letstalk-code/routecare/app"
	"github.com/letstalk-code/routecare/config"
	"github.com/letstalk-code/routecare/core/store"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List seeded drivers and their duty status",
	RunE:  runFleetLs,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// The roster lives in the seed fixture; no broker or server is needed.
	cfg.MQTT.Broker = ""
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error while closing service: %v\n", cerr)
		}
	}()
	for _, d := range svc.Store.ListDrivers(store.DriverFilter{}) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", d.ID, d.Name, d.Status)
	}
	return nil
}
