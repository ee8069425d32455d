// qrscan - live QR scanning service
//
// Acquires a camera, runs the sample-and-decode loop, and serves the
// dashboard with the live feed, viewfinder overlay and zoom control.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pixelgrove/qrscan/internal/config"
	"github.com/pixelgrove/qrscan/internal/log"
	"github.com/pixelgrove/qrscan/pkg/capture"
	"github.com/pixelgrove/qrscan/pkg/decode"
	"github.com/pixelgrove/qrscan/pkg/scanner"
	"github.com/pixelgrove/qrscan/pkg/web"
)

func main() {
	deviceID := flag.String("device", config.DeviceID(), "capture device index or path")
	port := flag.String("port", config.Port(), "dashboard port")
	preset := flag.String("preset", "", "config preset (default, fast, thorough, zoom2x)")
	interval := flag.Int("interval", config.IntEnv("QRSCAN_INTERVAL_MS", 0), "sample interval in ms (overrides preset)")
	zoom := flag.Float64("zoom", 0, "digital zoom level (overrides preset)")
	signalling := flag.String("signalling", config.SignallingURL(), "remote camera signalling URL (uses WebRTC source)")
	flag.Parse()

	log.Init(config.LogLevel())

	cfg := scanner.DefaultConfig()
	if *preset != "" {
		p := scanner.GetPreset(*preset)
		if p == nil {
			fmt.Fprintf(os.Stderr, "unknown preset %q (have: %v)\n", *preset, scanner.PresetNames())
			os.Exit(1)
		}
		cfg = *p
	}
	if *interval > 0 {
		cfg.SampleIntervalMs = *interval
	}
	if *zoom >= 1 {
		cfg.ZoomLevel = *zoom
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", errs)
		os.Exit(1)
	}

	source, err := openSource(*signalling, *deviceID, cfg)
	if err != nil {
		log.Error("failed to open frame source", "error", err)
		os.Exit(1)
	}
	defer source.Close()

	dec := decode.NewZXing(decode.Config{TryHarder: cfg.TryHarder})
	defer dec.Close()

	sc := scanner.New(source, dec, cfg)

	mgr := scanner.NewManager()
	mgr.OnConfigChange = sc.SetConfig
	if err := mgr.SetConfig(cfg); err != nil {
		log.Error("failed to apply initial config", "error", err)
		os.Exit(1)
	}

	srv := web.NewServer(*port, sc, mgr)
	sc.OnFrame = srv.PublishFrame
	sc.OnResult = func(scanID string, res decode.Result) {
		srv.PublishResult(scanID, res)
		srv.PublishStatus()
	}
	sc.OnError = func(err error) {
		log.Error("scan aborted", "error", err)
		srv.PublishStatus()
	}
	srv.StartAsync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sc.Start(ctx); err != nil {
		log.Error("failed to start scan", "error", err)
		os.Exit(1)
	}

	fmt.Printf("📷 qrscan running on http://localhost:%s (Ctrl+C to stop)\n", *port)
	<-ctx.Done()

	sc.Stop()
	srv.Shutdown()
}

func openSource(signalling, deviceID string, cfg scanner.Config) (capture.Source, error) {
	if signalling != "" {
		return capture.OpenRemote(capture.DefaultRemoteConfig(signalling))
	}
	return capture.OpenWebcam(deviceID, cfg.CaptureWidth, cfg.CaptureHeight)
}
