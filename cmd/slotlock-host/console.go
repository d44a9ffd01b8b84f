package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"slotlock/host/serial"
)

var (
	consoleDevice string
	consoleBaud   int
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Attach the terminal to the board's serial console",
	Long: `Relays the lock board's console to this terminal. Lines typed here are
sent to the board; lines starting with ~ are handled locally (~help).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := profile.Console
		if cmd.Flags().Changed("device") {
			cfg.Device = consoleDevice
		}
		if cmd.Flags().Changed("baud") {
			cfg.Baud = consoleBaud
		}

		port, err := serial.Open(&cfg)
		if err != nil {
			return err
		}
		defer port.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Fprintf(os.Stderr, "connected to %s, ~quit to leave\n", cfg.Device)
		return serial.NewBridge(port, os.Stdout, logger).Run(ctx, os.Stdin)
	},
}

func init() {
	consoleCmd.Flags().StringVarP(&consoleDevice, "device", "d", "/dev/ttyACM0", "serial device path")
	consoleCmd.Flags().IntVar(&consoleBaud, "baud", 115200, "baud rate (ignored for USB CDC)")
}
