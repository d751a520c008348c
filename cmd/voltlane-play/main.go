package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/voltlane/voltlane/cmd"
	"github.com/voltlane/voltlane/config"
	"github.com/voltlane/voltlane/oto"
	"github.com/voltlane/voltlane/render"
	"github.com/voltlane/voltlane/version"
)

func main() {
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	logLevel := flag.String("log", "", "Log level: debug, info, warn or error. Defaults to $"+cmd.LogEnv+", then warn.")
	tail := flag.Float64("tail", -1, "Seconds of tail after the last clip. Defaults to the configured render_tail_seconds.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if _, err := cmd.InitLogger(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("could not load config, using defaults", "error", err)
	}
	if *tail < 0 {
		*tail = cfg.RenderTailSeconds
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	var audioContext *oto.Context
	retval := 0
	for _, arg := range flag.Args() {
		if ctx.Err() != nil {
			break
		}
		p, err := cmd.LoadProject(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			retval = 1
			continue
		}
		sr := int(render.SampleRate(&p))
		if audioContext == nil {
			if audioContext, err = oto.NewContext(sr); err != nil {
				fmt.Fprintf(os.Stderr, "could not acquire oto audio context: %v\n", err)
				os.Exit(1)
			}
		} else if audioContext.SampleRate() != sr {
			slog.Warn("project sample rate differs from the open device, playback pitch will be off",
				"project", arg, "project_rate", sr, "device_rate", audioContext.SampleRate())
		}
		buf := render.Render(&p, *tail)
		slog.Info("playing", "project", arg, "seconds", float64(len(buf))/float64(sr))
		sink := audioContext.Output()
		if err := oto.Play(ctx, sink, buf, 4096); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "could not play %v: %v\n", arg, err)
			retval = 1
		}
		sink.Close()
	}
	if audioContext != nil {
		audioContext.Close()
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Voltlane player. Renders and plays .json or .yml projects; %q plays the built-in demo.\nUsage: %s [flags] [project ...]\n", cmd.DemoArg, os.Args[0])
	flag.PrintDefaults()
}
