// Command bridged is the device bridge daemon: it registers a set of
// devices from a config file, exposes them over a loopback WebSocket
// command/query/subscribe surface, and accounts every I/O operation's
// latency and throughput per device.
//
// Usage:
//
//	bridged [flags]
//
// Flags:
//
//	-config string        Path to a device config JSON file
//	-port int              Listen port override (default from config, else 8420)
//	-protocol-log string   File path for protocol event logging (CBOR format)
//	-log-level string      Log level: debug, info, warn, error (default "info")
//
// Example:
//
//	bridged -config devices.json -port 8420
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bridged-io/bridged/pkg/device"
	"github.com/bridged-io/bridged/pkg/dispatcher"
	"github.com/bridged-io/bridged/pkg/driver/bus"
	"github.com/bridged-io/bridged/pkg/fanout"
	"github.com/bridged-io/bridged/pkg/hotplug"
	bridgedlog "github.com/bridged-io/bridged/pkg/log"
	"github.com/bridged-io/bridged/pkg/perfacct"
	"github.com/bridged-io/bridged/pkg/registry"
)

var (
	configPath   string
	portOverride int
	protocolLog  string
	logLevel     string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to a device config JSON file")
	flag.IntVar(&portOverride, "port", 0, "Listen port override")
	flag.StringVar(&protocolLog, "protocol-log", "", "File path for protocol event logging (CBOR format)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	slogLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(logLevel)}))

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if portOverride > 0 {
		cfg.ListenPort = portOverride
	}
	if protocolLog != "" {
		cfg.ProtocolLogFile = protocolLog
	}

	protoLogger, closeLogger, err := buildLogger(slogLogger, cfg.ProtocolLogFile)
	if err != nil {
		log.Fatalf("build protocol logger: %v", err)
	}
	defer closeLogger()

	reg := registry.New()
	fanoutMgr := fanout.NewManager()
	perf := perfacct.New()

	busDiscoverer := resolveBusDiscoverer(cfg, slogLogger)
	hotplugAdapter := hotplug.NewAdapter(reg, cfg.HotplugVidPid)

	for _, spec := range cfg.Devices {
		drv, err := buildDriver(spec, protoLogger, busDiscoverer)
		if err != nil {
			log.Fatalf("build driver %q: %v", spec.ID, err)
		}
		if err := reg.Add(device.ID(spec.ID), drv); err != nil {
			log.Fatalf("register device %q: %v", spec.ID, err)
		}
		wireDriverEvents(spec.ID, drv, fanoutMgr, perf)

		if spec.Kind == "serial" {
			var ks serialSpec
			if err := decodeKindSpecific(spec.KindSpecific, &ks); err == nil && ks.PortName != "" {
				hotplugAdapter.Bind(ks.PortName, device.ID(spec.ID))
			}
		}

		slogLogger.Info("registered device", "id", spec.ID, "kind", spec.Kind)
	}

	hotplugCtx, stopHotplug := context.WithCancel(context.Background())
	defer stopHotplug()
	hotplugEvents := make(chan hotplug.Event, 32)
	poller := hotplug.NewPoller(serialPortSource, hotplug.DefaultPollInterval)
	go poller.Run(hotplugCtx, hotplugEvents)
	go hotplugAdapter.Consume(hotplugCtx, hotplugEvents)

	dispatchServer := dispatcher.NewServer(reg, fanoutMgr, perf, protoLogger)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ListenPort),
		Handler: dispatchServer,
	}

	go func() {
		slogLogger.Info("bridged listening", "port", cfg.ListenPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slogLogger.Info("shutting down")
	stopHotplug()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slogLogger.Warn("http shutdown error", "error", err)
	}

	for _, spec := range cfg.Devices {
		if err := reg.Remove(shutdownCtx, device.ID(spec.ID)); err != nil && err != registry.ErrNotFound {
			slogLogger.Warn("device disconnect error during shutdown", "device", spec.ID, "error", err)
		}
	}
}

// resolveBusDiscoverer builds the shared mDNS discoverer used by every
// sample-bus device, falling back to a no-op discoverer (streams still
// publish/subscribe directly; they just can't be found by query) if no
// config declares a bus device or mDNS initialization fails.
func resolveBusDiscoverer(cfg BridgeConfig, logger *slog.Logger) bus.Discoverer {
	needsDiscovery := false
	for _, spec := range cfg.Devices {
		if spec.Kind == "bus" {
			needsDiscovery = true
			break
		}
	}
	if !needsDiscovery {
		return noopDiscoverer{}
	}

	d, err := newMDNSDiscoverer()
	if err != nil {
		logger.Warn("mDNS discovery unavailable, sample bus streams will not resolve by query", "error", err)
		return noopDiscoverer{}
	}
	return d
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(slogLogger *slog.Logger, protocolLogPath string) (bridgedlog.Logger, func(), error) {
	console := bridgedlog.NewSlogAdapter(slogLogger)
	if protocolLogPath == "" {
		return console, func() {}, nil
	}

	fileLogger, err := bridgedlog.NewFileLogger(protocolLogPath)
	if err != nil {
		return nil, nil, err
	}
	multi := bridgedlog.NewMultiLogger(console, fileLogger)
	return multi, func() { fileLogger.Close() }, nil
}
