package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"lbship/internal/config"
	"lbship/internal/engine"
	"lbship/internal/logging"
	"lbship/internal/transform/builtin"
	"lbship/sink"
	"lbship/source"
)

func main() {
	var cfg engine.Config
	flag.StringVar(&cfg.PipelineYml, "pipeline", "pipeline.yml", "pipeline definition")
	flag.IntVar(&cfg.MetricsPort, "metrics-port", 0, "serve /metrics on this port (overrides the pipeline file)")
	list := flag.Bool("list-transformers", false, "print the available transformers, sources and sinks and exit")
	flag.Parse()

	logging.InitFromEnv()

	if *list {
		if err := printCatalog(); err != nil {
			logging.L().Error("lbship: list", "err", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := engine.Bootstrap(ctx, cfg)
	if err != nil {
		logging.L().Error("lbship: bootstrap", "err", err)
		os.Exit(1)
	}
	if err := e.Run(ctx); err != nil {
		logging.L().Error("lbship: run", "err", err)
		os.Exit(1)
	}
}

func printCatalog() error {
	reg, err := builtin.NewRegistry(config.TransformSettings{})
	if err != nil {
		return err
	}
	fmt.Println("transformers:", strings.Join(reg.Names(), ", "))
	fmt.Println("sources:     ", strings.Join(source.Kinds(), ", "))
	fmt.Println("sinks:       ", strings.Join(sink.Kinds(), ", "))
	return nil
}
