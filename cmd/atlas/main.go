package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/slp-atlas/pkg/api"
	"github.com/hazyhaar/slp-atlas/pkg/chassis"
	"github.com/hazyhaar/slp-atlas/pkg/loader"
	"github.com/hazyhaar/slp-atlas/pkg/verify"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "verify":
		os.Exit(cmdVerify(os.Args[2:]))
	case "mcp":
		cmdMCP(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: atlas <command> [-config config.yaml]

Commands:
  serve    Load and verify the data, then serve the HTTP API
  verify   Load and verify the data, print the report (exit 1 on violations)
  mcp      Serve the MCP tools on stdio
`)
}

func mustSetup(cfgPath string) *app {
	a, err := setup(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "atlas: %v\n", err)
		os.Exit(1)
	}
	return a
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	a := mustSetup(*cfgPath)
	defer a.close()
	logger := a.logger

	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := a.open(ctx); err != nil {
		logger.Error("failed to load data", "error", err)
		os.Exit(1)
	}

	// SIGHUP: reload inputs.
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, reloading data")
			if err := a.reload(ctx); err != nil {
				logger.Error("reload failed", "error", err)
			}
		}
	}()

	if a.db != nil && a.cfg.CheckInterval > 0 {
		if err := a.db.SyncSources(a.cfg.Sources.Map()); err != nil {
			logger.Error("sync sources", "error", err)
		} else {
			go loader.NewChecker(a.db, logger, a.cfg.CheckInterval).Start(ctx)
		}
	}

	router := accessLog(logger, api.NewRouter(a.sess, api.Options{
		Reload: a.reload,
		Store:  a.db,
		Logger: logger,
	}))

	if a.cfg.TLS {
		srv, err := chassis.New(chassis.Config{
			Addr:     a.cfg.Addr,
			CertFile: a.cfg.CertFile,
			KeyFile:  a.cfg.KeyFile,
			Hosts:    a.cfg.TLSHosts,
			Handler:  router,
			Logger:   logger,
		})
		if err != nil {
			logger.Error("chassis", "error", err)
			os.Exit(1)
		}
		if err := srv.Start(ctx); err != nil {
			logger.Error("server error", "error", err)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(shutdownCtx)
		return
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("atlas listening", "addr", a.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func cmdVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	fs.Parse(args)

	a := mustSetup(*cfgPath)
	defer a.close()

	report, err := a.open(context.Background())
	if err != nil {
		a.logger.Error("failed to load data", "error", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(report)
	} else {
		printReport(report)
	}
	if !report.OK {
		return 1
	}
	return 0
}

func printReport(r verify.Report) {
	for _, check := range r.Checks {
		vs := r.ByCheck(check)
		status := "ok"
		if len(vs) > 0 {
			status = fmt.Sprintf("%d violation(s)", len(vs))
		}
		fmt.Printf("%-16s %s\n", check, status)
		for _, v := range vs {
			fmt.Printf("  - %s\n", v.Message)
		}
	}
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	a := mustSetup(*cfgPath)
	defer a.close()

	if _, err := a.open(context.Background()); err != nil {
		a.logger.Error("failed to load data", "error", err)
		os.Exit(1)
	}
	if err := server.ServeStdio(api.NewMCPServer(a.sess, a.logger)); err != nil {
		a.logger.Error("mcp stdio", "error", err)
		os.Exit(1)
	}
}
