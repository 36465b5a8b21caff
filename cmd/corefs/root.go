package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose    bool
	concurrency int
	metricsAddr string
)

// Root is the corefs cobra root command, mirroring rclone's cmd.Root: a
// bare root plus registered subcommands, global flags bound once here.
var Root = &cobra.Command{
	Use:   "corefs",
	Short: "File operations and terminal emulation engine",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		if metricsAddr != "" {
			startMetricsServer(metricsAddr)
		}
	},
}

func init() {
	flags := pflag.NewFlagSet("corefs", pflag.ExitOnError)
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.IntVarP(&concurrency, "concurrency", "j", 4, "max concurrent jobs in the pool")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	Root.PersistentFlags().AddFlagSet(flags)

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logrus.WithError(err).Warn("metrics server exited")
		}
	}()
}
