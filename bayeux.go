// Package bayeux wires a Bayeux 1.0 publish/subscribe server into a
// Buffalo application with a single call. It brings together the
// protocol engine (broker), its HTTP long-polling transport, and the
// ambient logging/metrics/config stack under one Wire() entrypoint,
// the same shape as the host toolkit's own package wiring.
package bayeux

import (
	"fmt"
	"net/http"

	"github.com/gobuffalo/buffalo"

	"github.com/johnjansen/bayeux/broker"
	"github.com/johnjansen/bayeux/internal/logging"
	"github.com/johnjansen/bayeux/internal/metrics"
	"github.com/johnjansen/bayeux/transport"
)

// Config holds the settings Wire needs to assemble a Broker and mount
// it into a Buffalo app. A zero Broker field falls back to
// broker.DefaultConfig() as a whole; a non-zero one is used as given,
// with no per-field defaults. Host apps that need finer control should use
// internal/config.Load() and call broker.New/transport.New directly.
type Config struct {
	// Path is the single endpoint the protocol is served on. Defaults
	// to "/bayeux" if empty.
	Path string

	// LogLevel controls the zap logger's minimum level ("debug",
	// "info", "warn", "error"). Defaults to "info".
	LogLevel string

	// MetricsPath mounts a Prometheus handler at this path when
	// non-empty. Leave empty to skip metrics entirely.
	MetricsPath string

	// Policy is consulted for handshake/create/subscribe/publish
	// authorization. Nil means every operation is permitted.
	Policy broker.Policy

	// Broker overrides broker.DefaultConfig() when any field is
	// non-zero; the simplest way to tune timeouts is to start from
	// broker.DefaultConfig() yourself and pass the result here.
	Broker broker.Config
}

// Kit holds references to the wired subsystems after Wire returns.
type Kit struct {
	// Broker owns channel/session state and the message pipeline. Use
	// it to create channels or publish server-originated messages:
	// kit.Broker.CreateChannel("/news").
	Broker *broker.Broker

	// Transport is the HTTP adapter mounted at Config.Path.
	Transport *transport.Transport

	// Logger is the zap logger backing the broker's structured logs.
	Logger *logging.BrokerAdapter

	// Metrics is nil unless Config.MetricsPath was set.
	Metrics *metrics.Registry

	// Config is the configuration Wire was called with.
	Config Config
}

// Wire installs a Bayeux server into a Buffalo application.
//
//	app := buffalo.New(buffalo.Options{})
//	kit, err := bayeux.Wire(app, bayeux.Config{
//	    Path:        "/bayeux",
//	    MetricsPath: "/metrics",
//	})
//
// Wire performs the following setup:
//  1. Builds a zap logger at Config.LogLevel
//  2. Initializes Prometheus metrics if Config.MetricsPath is set
//  3. Constructs the Broker with the logger/metrics/policy wired in
//  4. Mounts the long-polling transport at Config.Path
//  5. Mounts the metrics handler, if configured
func Wire(app *buffalo.App, cfg Config) (*Kit, error) {
	if cfg.Path == "" {
		cfg.Path = "/bayeux"
	}

	zl, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("bayeux: building logger: %w", err)
	}
	adapter := logging.NewBrokerAdapter(zl)

	opts := []broker.Option{broker.WithLogger(adapter)}

	var reg *metrics.Registry
	if cfg.MetricsPath != "" {
		reg = metrics.NewRegistry()
		opts = append(opts, broker.WithMetrics(reg))
	}

	if cfg.Policy != nil {
		opts = append(opts, broker.WithPolicy(cfg.Policy))
	}

	brokerCfg := cfg.Broker
	if (brokerCfg == broker.Config{}) {
		brokerCfg = broker.DefaultConfig()
	}

	b := broker.New(brokerCfg, opts...)
	t := transport.New(b, brokerCfg)

	kit := &Kit{
		Broker:    b,
		Transport: t,
		Logger:    adapter,
		Metrics:   reg,
		Config:    cfg,
	}

	app.POST(cfg.Path, wrapTransport(t, brokerCfg))

	if cfg.MetricsPath != "" {
		app.GET(cfg.MetricsPath, wrapHandler(reg.Handler()))
	}

	return kit, nil
}

// wrapTransport adapts transport.Transport.ServeHTTP (a plain
// net/http.HandlerFunc) into a buffalo.Handler, and applies the
// security headers that matter for a JSON long-polling response.
func wrapTransport(t *transport.Transport, _ broker.Config) buffalo.Handler {
	h := transport.SecurityHeaders(http.HandlerFunc(t.ServeHTTP))
	return wrapHandler(h)
}

func wrapHandler(h http.Handler) buffalo.Handler {
	return func(c buffalo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// Version returns the current release tag of this server.
func Version() string {
	return "0.1.0"
}
