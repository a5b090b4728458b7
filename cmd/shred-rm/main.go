// Command shred-rm removes files through the same shred-before-unlink path
// the preload library gives other programs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"unlink-shred/internal/config"
	"unlink-shred/internal/engine"
	"unlink-shred/internal/exitcodes"
	"unlink-shred/internal/fsops"
	"unlink-shred/internal/interpose"
	"unlink-shred/internal/logging"
	"unlink-shred/internal/metrics"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr, logging.New("shred-rm")))
}

func run(args []string, stderr io.Writer, logger *log.Logger) int {
	fs := flag.NewFlagSet("shred-rm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to configuration file (default $"+config.EnvConfigPath+" or "+config.DefaultConfigPath+")")
	dryRun := fs.Bool("dry-run", false, "Decide and audit without shredding or removing anything")
	textfile := fs.String("metrics-textfile", "", "Write Prometheus metrics to this file on exit (overrides metrics.textfile_path)")
	force := fs.Bool("f", false, "Ignore nonexistent files")
	if err := fs.Parse(args); err != nil {
		return exitcodes.InvalidConfig
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: shred-rm [flags] FILE...")
		fs.PrintDefaults()
		return exitcodes.InvalidConfig
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Printf("ERROR: Failed to load config: %v", err)
		return exitcodes.InvalidConfig
	}
	if *dryRun {
		cfg.DryRun = true
		logger.Println("DRY RUN MODE: No files will be shredded or removed")
	}
	if *textfile != "" {
		cfg.Metrics.TextfilePath = *textfile
	}

	rt, err := engine.Open(cfg)
	if err != nil {
		logger.Printf("ERROR: %v", err)
		return exitcodes.RuntimeError
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Printf("ERROR: Failed to close audit database: %v", err)
		}
	}()

	code := exitcodes.Success
	if cfg.DryRun {
		for _, p := range fs.Args() {
			logger.Printf("%s: %s", p, rt.Engine.DecideAndMaybeShred(p))
		}
	} else {
		code = removeAll(fs.Args(), rt.Engine, *force, logger)
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Printf("ERROR: Failed to write metrics: %v", err)
		}
	}
	return code
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func removeAll(paths []string, dec interpose.Decider, force bool, logger *log.Logger) int {
	facade := interpose.New(func() (fsops.Unlinker, error) { return fsops.OSUnlinker{}, nil }, dec)

	code := exitcodes.Success
	for _, p := range paths {
		err := facade.Unlink(p)
		switch {
		case err == nil:
		case force && errors.Is(err, os.ErrNotExist):
		case errors.Is(err, interpose.ErrResolve):
			logger.Printf("ERROR: %s: %v", p, err)
			return exitcodes.ResolveFailed
		default:
			logger.Printf("ERROR: cannot remove %s: %v", p, err)
			code = exitcodes.RemoveFailed
		}
	}
	return code
}
