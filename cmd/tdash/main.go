package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"tradingdash/internal/config"
	"tradingdash/internal/db"
	"tradingdash/internal/web"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "render":
		renderCmd(os.Args[2:])
	case "check":
		checkCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println(`tdash - tradingdash admin CLI

Usage:
  tdash render [-config config.yaml] [-o dashboard.html]
  tdash check  [-config config.yaml] [-db postgres://...]

Examples:
  tdash render -o ./public/index.html
  tdash check -config ./config.yaml`)
}

func renderCmd(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var (
		cfgPath = fs.String("config", "config.yaml", "path to config file")
		outPath = fs.String("o", "", "output file (default: stdout)")
	)
	_ = fs.Parse(reorderArgs(args))

	cfg := loadConfig(*cfgPath)

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("create output: %v", err)
		}
		defer f.Close()
		out = f
	}
	if err := renderDashboard(out, cfg); err != nil {
		log.Fatalf("render: %v", err)
	}
}

func renderDashboard(w io.Writer, cfg *config.Config) error {
	rend, err := web.NewRenderer()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := rend.Render(&buf, "dashboard", web.Dashboard(cfg)); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func checkCmd(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var (
		cfgPath    = fs.String("config", "config.yaml", "path to config file")
		dbOverride = fs.String("db", "", "override database connection URL")
	)
	_ = fs.Parse(reorderArgs(args))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	fmt.Printf("ok: config valid\n  address: %s\n  backend: %s\n", cfg.HTTP.Address, cfg.Backend.HealthURL)

	appURL, err := resolveDBURL(cfg, *dbOverride)
	if err != nil {
		log.Fatalf("db url: %v", err)
	}
	if appURL == "" {
		fmt.Println("ok: no database configured")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	pool, err := db.NewPool(ctx, appURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	fmt.Println("ok: database reachable")
}

// loadConfig tolerates a missing file the same way the server does.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if cfg == nil {
		log.Fatalf("config: %v", err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; using defaults\n", err)
	}
	return cfg
}

func resolveDBURL(cfg *config.Config, override string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return override, nil
	}
	if !cfg.Database.Enabled() {
		return "", nil
	}
	return cfg.Database.AppURL()
}

func reorderArgs(args []string) []string {
	var flags []string
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg != "-" && arg != "--" && arg[0] == '-' {
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") && i+1 < len(args) && (len(args[i+1]) == 0 || args[i+1][0] != '-') {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}
