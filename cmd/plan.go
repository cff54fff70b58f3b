package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/letstalk-code/routecare/app"
	"github.com/letstalk-code/routecare/config"
	"github.com/letstalk-code/routecare/core/scheduler"
	"github.com/letstalk-code/routecare/core/store"
	"github.com/letstalk-code/routecare/pkg/export"
)

var (
	planFile   string
	planDate   string
	planFormat string
	planOut    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Expand recurring trip templates into a day-ahead driver plan",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "templates", "t", "", "plan definition file (yaml or json)")
	planCmd.Flags().StringVarP(&planDate, "date", "d", "", "plan date as YYYY-MM-DD (default tomorrow)")
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "csv", "output format: csv or json")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "output file (default stdout)")
	_ = planCmd.MarkFlagRequired("templates")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	def, err := scheduler.LoadDefinition(planFile)
	if err != nil {
		return fmt.Errorf("load plan definition: %w", err)
	}

	date := time.Now().AddDate(0, 0, 1)
	if planDate != "" {
		date, err = time.Parse("2006-01-02", planDate)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", planDate, err)
		}
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// The roster comes from the seed fixture; no broker or server is needed.
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

	drivers := svc.Store.ListDrivers(store.DriverFilter{})
	shifts := make(map[string][]scheduler.ShiftWindow, len(drivers))
	for _, d := range drivers {
		ws, err := scheduler.WindowsFromShift(d.Shift, date)
		if err != nil {
			return fmt.Errorf("driver %s shift: %w", d.ID, err)
		}
		shifts[d.ID] = ws
	}

	p := scheduler.Planner{
		Config:    def.Planner,
		Drivers:   drivers,
		Shifts:    shifts,
		Templates: def.Templates,
	}
	plan, err := p.GeneratePlan(date)
	if err != nil {
		return fmt.Errorf("generate plan: %w", err)
	}

	out := cmd.OutOrStdout()
	if planOut != "" {
		f, err := os.Create(planOut)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	switch planFormat {
	case "json":
		return export.WriteJSON(out, plan)
	case "csv":
		return export.WriteCSV(out, plan)
	default:
		return fmt.Errorf("unknown format %q", planFormat)
	}
}
