package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rtm0/era5rain/internal/cds"
	"github.com/rtm0/era5rain/internal/config"
	"github.com/rtm0/era5rain/internal/logger"
	"github.com/rtm0/era5rain/internal/rainfall"
)

var (
	configFile = flag.String("config", "config.yaml", "path to a YAML config file; RAINFALL_* environment variables override it")
	date       = flag.String("date", "", "day to retrieve, YYYY-MM-DD. Default: 2023-07-15")
	file       = flag.String("file", "", "path to an existing ERA5 file in NetCDF format to plot instead of retrieving one")
	sample     = flag.Bool("sample", false, "skip the retrieval and plot synthetic data")
	seed       = flag.Uint64("seed", 0, "random seed for synthetic data; 0 picks one at random")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := applyFlags(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Stop(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cdsCli := cds.NewClient(log, cds.Options{
		URL:          cfg.CDS.URL,
		Key:          cfg.CDS.Key,
		RCFile:       cfg.CDS.RCFile,
		PollInterval: cfg.CDS.PollInterval,
		Timeout:      cfg.CDS.Timeout,
	})
	runner, err := rainfall.NewRunner(log, cfg, cdsCli)
	if err != nil {
		log.Errorw("Could not create the rainfall runner", "err", err)
		os.Exit(1)
	}

	log.Infow("ERA5 Kathmandu Valley rainfall plotter", "date", cfg.Date, "region", cfg.Region.String(), "sample", cfg.Sample)
	res, err := runner.Run(ctx)
	if err != nil {
		log.Errorw("Rainfall plotting failed", "err", err)
		stop()
		logger.Stop(log)
		os.Exit(1)
	}
	log.Infow("Rainfall plotting completed", "source", res.Source, "title", res.Title, "files", res.Files)
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cfg *config.Config) error {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "date":
			cfg.Date = *date
		case "file":
			cfg.DataFile = *file
			cfg.Reuse = true
		case "sample":
			cfg.Sample = *sample
		case "seed":
			cfg.Seed = *seed
		}
	})
	return cfg.Validate()
}
