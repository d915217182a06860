package commands

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/brentcurtis76/casa-reconcile/pkg/cron"
)

func newSweepCommand() *cobra.Command {
	var daemon bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Auto-confirm high-confidence match proposals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			scheduler := cron.NewScheduler(a.svc, a.cfg.Scheduler, a.logger)

			if !daemon {
				confirmed, err := scheduler.RunNow(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("Confirmed %d matches\n", confirmed)
				return nil
			}

			if err := scheduler.Start(); err != nil {
				return err
			}
			defer func() { <-scheduler.Stop().Done() }()

			if a.cfg.Metrics.Enabled {
				go func() {
					addr := fmt.Sprintf(":%d", a.cfg.Metrics.Port)
					http.Handle("/metrics", promhttp.Handler())
					if err := http.ListenAndServe(addr, nil); err != nil {
						a.logger.Error("metrics server failed", "error", err)
					}
				}()
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
			return nil
		},
	}

	cmd.Flags().BoolVar(&daemon, "daemon", false, "keep running on the configured schedule")

	return cmd
}
