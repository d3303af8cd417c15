// SPDX-License-Identifier: Unlicense OR MIT

// Command vgaview shows a simulated text screen in a window while a
// background writer fills it with best-effort prints.
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"eliasnaur.com/freestand/config"
	"eliasnaur.com/freestand/internal/hosted"
	"eliasnaur.com/freestand/kernel"
	"eliasnaur.com/freestand/lockstat"
	"eliasnaur.com/freestand/vga"
)

var logger = loggo.GetLogger("freestand.vgaview")

func main() {
	fs := gnuflag.NewFlagSet("vgaview", gnuflag.ExitOnError)
	cfgPath := fs.String("config", "", "configuration file")
	interval := fs.Duration("interval", 50*time.Millisecond, "time between prints")
	fs.Parse(true, os.Args[1:])

	go func() {
		w := app.NewWindow(
			app.Title("vgaview"),
			app.Size(unit.Dp(vga.Width*vga.CellWidth), unit.Dp(vga.Height*vga.CellHeight+32)),
		)
		if err := run(w, *cfgPath, *interval); err != nil {
			fmt.Fprintf(os.Stderr, "vgaview: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

func run(w *app.Window, cfgPath string, interval time.Duration) error {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return errors.Trace(err)
		}
	}
	// The window shows the screen; the serial port stays quiet.
	cfg.Serial.Echo = false
	if err := hosted.SetupLogging(cfg.Log); err != nil {
		return errors.Trace(err)
	}
	env, err := hosted.Open(cfg, nil)
	if err != nil {
		return errors.Trace(err)
	}
	defer env.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stats := lockstat.New()
	m, err := kernel.Boot(ctx, cfg, env.Bus, env.Screen, stats)
	if err != nil {
		return errors.Trace(err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		write(ctx, m, w, interval)
	}()
	defer func() {
		cancel()
		<-done
	}()

	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	var (
		ops     op.Ops
		snap    paint.ImageOp
		skipped int
	)
	for {
		switch e := w.NextEvent().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			var img image.Image
			if env.Screen.Try(func(b *vga.Buffer) { img = vga.Render(b) }) {
				snap = paint.NewImageOp(img)
			} else {
				// Keep showing the previous frame.
				skipped++
			}
			paint.Fill(gtx.Ops, color.NRGBA{A: 0xff})
			layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					l := material.Body2(th, fmt.Sprintf("frames rendered from a busy screen: %d", skipped))
					l.Color = color.NRGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 0xff}
					return layout.UniformInset(unit.Dp(6)).Layout(gtx, l.Layout)
				}),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return widget.Image{Src: snap, Fit: widget.Contain, Position: layout.N}.Layout(gtx)
				}),
			)
			e.Frame(gtx.Ops)
		}
	}
}

// write prints the clock and a counter to the screen until ctx is done.
// Prints that find the screen busy are dropped.
func write(ctx context.Context, m *kernel.Machine, w *app.Window, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		now, ok := m.Now()
		if !ok {
			now = time.Now()
		}
		if !m.Console.VGA.TryPrintf("%5d  %s\n", n, now.Format(time.TimeOnly)) {
			logger.Debugf("print %d dropped", n)
		}
		w.Invalidate()
	}
}
