// Command soundcheckd is the background analysis daemon. When launched with
// a worker socket in the environment it serves as an isolated analysis
// worker instead of hosting the queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"soundcheck/internal/config"
	"soundcheck/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	opts := daemonrun.Options{LogLevel: *logLevel}

	ctx := context.Background()
	served, err := daemonrun.RunWorker(ctx, cfg, opts)
	if served {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	if err != nil {
		log.Fatalf("attach worker socket: %v", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}
	if err := daemonrun.Run(ctx, cfg, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
