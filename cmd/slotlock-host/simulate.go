package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"slotlock/host/config"
	"slotlock/host/sim"
	"slotlock/host/telemetry"
)

var (
	simSpeed       float64
	simNATSURL     string
	simMetricsAddr string
	simBoardID     string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the lock controller on a simulated board",
	Long: `Runs the lock controller against a simulated 16 MHz board with a 16-bit
timer, two GPIO banks and a character LCD. Commands typed on stdin drive the
board; type help for the list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := profile.CoreConfig()
		if err != nil {
			return err
		}
		simCfg := profile.Simulator
		if cmd.Flags().Changed("speed") {
			simCfg.Speed = simSpeed
		}
		tel := profile.Telemetry
		if cmd.Flags().Changed("nats") {
			tel.NATSURL = simNATSURL
		}
		if cmd.Flags().Changed("metrics-addr") {
			tel.MetricsAddr = simMetricsAddr
		}
		if cmd.Flags().Changed("board-id") {
			tel.BoardID = simBoardID
		}

		board, err := sim.NewBoard(sim.Options{
			Config:     cfg,
			StoredCode: simCfg.Code(),
			Host:       simCfg.Host,
			Speed:      simCfg.Speed,
			Console:    os.Stdout,
			Logger:     logger,
		})
		if err != nil {
			return err
		}

		var publisher telemetry.Publisher = &telemetry.NoopPublisher{}
		if tel.NATSURL != "" {
			pub, err := telemetry.NewNATSPublisher(tel.NATSURL)
			if err != nil {
				return err
			}
			logger.Info("publishing events", "url", tel.NATSURL, "prefix", tel.SubjectPrefix)
			publisher = pub
		}
		defer publisher.Close()

		metrics, observer := attachTelemetry(board, tel, publisher)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)
		// Claim the loop before the command line can step it
		wait, err := board.Start(ctx)
		if err != nil {
			return err
		}
		g.Go(wait)
		if tel.MetricsAddr != "" {
			g.Go(func() error {
				return metrics.Serve(ctx, tel.MetricsAddr, logger)
			})
		}

		fmt.Fprintf(board.Console(), "simulated board %s, check period %s, type help\n",
			observer.BoardID(), board.Period())

		// stdin is not part of the group: a blocked read must not hold up shutdown
		go func() {
			defer cancel()
			repl(board, os.Stdin, board.Console())
		}()

		return g.Wait()
	},
}

// attachTelemetry registers an observer that counts and publishes the
// board's lock checks and sessions
func attachTelemetry(board *sim.Board, tel config.TelemetryConfig, publisher telemetry.Publisher) (*telemetry.Metrics, *telemetry.Observer) {
	metrics := telemetry.NewMetrics(board.Controller().Overflows)
	observer := telemetry.NewObserver(telemetry.ObserverConfig{
		BoardID:       tel.BoardID,
		SubjectPrefix: tel.SubjectPrefix,
		Publisher:     publisher,
		Metrics:       metrics,
		Overflows:     board.Controller().Overflows,
		Logger:        logger,
	})
	board.Controller().SetObserver(observer)
	return metrics, observer
}

// repl runs board commands read from in until it is exhausted or quit is typed
func repl(board *sim.Board, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		err := board.Exec(line, out)
		if errors.Is(err, sim.ErrQuit) {
			return
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func init() {
	simulateCmd.Flags().Float64Var(&simSpeed, "speed", 1, "simulated seconds per wall second")
	simulateCmd.Flags().StringVar(&simNATSURL, "nats", "", "NATS server URL for lock events")
	simulateCmd.Flags().StringVar(&simMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	simulateCmd.Flags().StringVar(&simBoardID, "board-id", "", "board ID stamped on events (default random)")
}
