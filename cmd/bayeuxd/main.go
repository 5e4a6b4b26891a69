package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gobuffalo/buffalo"
	"github.com/gobuffalo/envy"

	"github.com/johnjansen/bayeux"
	"github.com/johnjansen/bayeux/internal/config"
	"github.com/johnjansen/bayeux/policy"
)

// App builds the Buffalo application hosting the Bayeux server.
func App() *buffalo.App {
	envy.Load()

	app := buffalo.New(buffalo.Options{
		Env:  envy.Get("GO_ENV", "development"),
		Host: envy.Get("HOST", "http://127.0.0.1:3000"),
	})

	opts, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	cfg := bayeux.Config{
		Path:        "/bayeux",
		LogLevel:    opts.LogLevel,
		MetricsPath: envy.Get("METRICS_PATH", "/metrics"),
		Broker:      opts.ToBrokerConfig(),
	}

	if secret := envy.Get("BAYEUX_SHARED_SECRET", ""); secret != "" {
		handshakePolicy, err := policy.NewSharedSecretPolicy(secret)
		if err != nil {
			log.Fatal("failed to build handshake policy:", err)
		}
		limiter := policy.NewRateLimiter(10, time.Minute, 5*time.Minute)
		cfg.Policy = policy.NewChain(limiter, handshakePolicy)
	}

	kit, err := bayeux.Wire(app, cfg)
	if err != nil {
		log.Fatal("failed to wire bayeux:", err)
	}
	_ = kit

	return app
}

func main() {
	app := App()
	if app == nil {
		log.Fatal("failed to create app")
	}

	fmt.Println("bayeuxd starting")
	fmt.Println("endpoint: http://localhost:3000/bayeux")
	fmt.Println("metrics:  http://localhost:3000/metrics")

	port := envy.Get("PORT", "3000")
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%s", port), app))
}
