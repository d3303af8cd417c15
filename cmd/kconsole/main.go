// SPDX-License-Identifier: Unlicense OR MIT

// Command kconsole boots a machine as an ordinary process, prints its
// arguments to the serial port and the screen, and optionally exports
// lock metrics.
//
// Usage:
//
//	kconsole [flags] [message ...]
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"eliasnaur.com/freestand/config"
	"eliasnaur.com/freestand/internal/hosted"
	"eliasnaur.com/freestand/kernel"
	"eliasnaur.com/freestand/lockstat"
	"eliasnaur.com/freestand/vga"
)

var logger = loggo.GetLogger("freestand.kconsole")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "kconsole: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	log        string
	backend    string
	pngPath    string
	listen     string
	dump       bool
}

func parseArgs(args []string) (options, []string, error) {
	var o options
	fs := gnuflag.NewFlagSet("kconsole", gnuflag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "configuration file")
	fs.StringVar(&o.log, "log", "", "logger configuration, overriding the file")
	fs.StringVar(&o.backend, "backend", "", "port backend (sim, devport or native), overriding the file")
	fs.StringVar(&o.pngPath, "png", "", "write a snapshot of the screen to this PNG file")
	fs.StringVar(&o.listen, "listen", "", "serve lock metrics on this address until interrupted")
	fs.BoolVar(&o.dump, "dump", false, "print the screen contents when done")
	if err := fs.Parse(true, args); err != nil {
		return options{}, nil, errors.Trace(err)
	}
	return o, fs.Args(), nil
}

func loadConfig(o options) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, errors.Trace(err)
		}
	}
	if o.log != "" {
		cfg.Log = o.log
	}
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.listen != "" {
		cfg.Metrics.Listen = o.listen
	}
	return cfg, errors.Trace(cfg.Validate())
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, msgs, err := parseArgs(args)
	if err != nil {
		return errors.Trace(err)
	}
	cfg, err := loadConfig(o)
	if err != nil {
		return errors.Trace(err)
	}
	if err := hosted.SetupLogging(cfg.Log); err != nil {
		return errors.Trace(err)
	}
	env, err := hosted.Open(cfg, stdout)
	if err != nil {
		return errors.Trace(err)
	}
	defer env.Close()

	stats := lockstat.New()
	m, err := kernel.Boot(ctx, cfg, env.Bus, env.Screen, stats)
	if err != nil {
		return errors.Trace(err)
	}
	if len(msgs) > 0 {
		msg := strings.Join(msgs, " ")
		if err := m.Console.COM1.PrintRetry(ctx, m.Policy, msg, "\n"); err != nil {
			return errors.Trace(err)
		}
		if err := m.Console.VGA.PrintRetry(ctx, m.Policy, msg, "\n"); err != nil {
			return errors.Trace(err)
		}
	}
	if now, ok := m.Now(); ok {
		logger.Infof("real time clock reads %v", now.Format(time.RFC3339))
	} else {
		logger.Warningf("real time clock unavailable")
	}
	if addrs, err := m.Devices(); err != nil {
		logger.Warningf("listing PCI devices: %v", err)
	} else {
		for _, a := range addrs {
			logger.Debugf("pci %v", a)
		}
	}

	if o.pngPath != "" {
		if err := writePNG(o.pngPath, env); err != nil {
			return errors.Trace(err)
		}
	}
	if o.dump {
		var screen string
		if !env.Screen.Try(func(b *vga.Buffer) { screen = b.String() }) {
			return errors.New("screen busy")
		}
		fmt.Fprintln(stdout, screen)
	}
	if cfg.Metrics.Listen != "" {
		return errors.Trace(serveMetrics(ctx, cfg.Metrics.Listen, stats))
	}
	return nil
}

func writePNG(path string, env *hosted.Env) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = errors.Trace(cerr)
		}
	}()
	var encErr error
	if !env.Screen.Try(func(b *vga.Buffer) { encErr = vga.EncodePNG(f, b) }) {
		return errors.Errorf("screen busy, %s not written", path)
	}
	return errors.Annotatef(encErr, "writing %s", path)
}

func serveMetrics(ctx context.Context, addr string, stats *lockstat.Collector) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(stats)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return errors.Trace(err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Trace(srv.Shutdown(shutdownCtx))
	})
	return g.Wait()
}
