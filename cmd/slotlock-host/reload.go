package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"slotlock/core"
)

var reloadPeriod time.Duration

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Print the timer reload constant for the board profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := profile.CoreConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("period") {
			cfg.CheckPeriod = reloadPeriod
		}

		reload, err := cfg.Reload()
		if err != nil {
			return fmt.Errorf("period %s: %w", cfg.CheckPeriod, err)
		}
		actual := core.CountdownPeriod(cfg.ClockHz, cfg.Prescaler, reload)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "clock:     %d Hz / %d\n", cfg.ClockHz, cfg.Prescaler)
		fmt.Fprintf(out, "period:    %s\n", cfg.CheckPeriod)
		fmt.Fprintf(out, "ticks:     %d\n", core.CounterRange-uint32(reload))
		fmt.Fprintf(out, "reload:    %d (0x%04X)\n", reload, reload)
		fmt.Fprintf(out, "actual:    %s\n", actual)
		return nil
	},
}

func init() {
	reloadCmd.Flags().DurationVarP(&reloadPeriod, "period", "p", time.Second, "check period, overrides the profile")
}
