// Command pipelinedef-admin runs the pipeline-definition control plane:
// the admin HTTP API, the optional Kafka catalog-event consumer, and the
// optional Redis metadata cache, wired together with bootstrap.App the
// way every other service in this module starts up.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/pipelinedef/adminapi"
	"github.com/kbukum/pipelinedef/bootstrap"
	"github.com/kbukum/pipelinedef/config"
	"github.com/kbukum/pipelinedef/definition"
	"github.com/kbukum/pipelinedef/redis"
)

func main() {
	var cfg definition.ServiceConfig
	if err := config.LoadConfig("pipelinedef-admin", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	app, err := bootstrap.NewApp[*definition.ServiceConfig](&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap failed: %v\n", err)
		os.Exit(1)
	}

	registry := newStaticModelRegistry()

	var opts []definition.ServiceOption
	if cfg.Redis.Enabled {
		redisClient, rerr := redis.New(redis.Config{
			Enabled: true,
			Addr:    cfg.Redis.Addr,
			DB:      cfg.Redis.DB,
		}, app.Logger)
		if rerr != nil {
			fmt.Fprintf(os.Stderr, "redis connect failed: %v\n", rerr)
			os.Exit(1)
		}
		opts = append(opts, definition.WithMetadataCache(definition.NewMetadataCache(redisClient, app.Logger)))
	}

	svc := definition.NewService(registry, app.Logger, nil, opts...)

	if cfg.Kafka.Enabled {
		consumer, cerr := definition.NewCatalogConsumer(cfg.Kafka, "model-catalog-events", svc, app.Logger)
		if cerr != nil {
			fmt.Fprintf(os.Stderr, "kafka consumer setup failed: %v\n", cerr)
			os.Exit(1)
		}
		svc.AttachCatalogConsumer(consumer)
	}

	if err := app.RegisterComponent(svc); err != nil {
		fmt.Fprintf(os.Stderr, "register definition service failed: %v\n", err)
		os.Exit(1)
	}

	api := adminapi.New(cfg.AdminAddr, svc, app.Logger)
	if err := app.RegisterComponent(api); err != nil {
		fmt.Fprintf(os.Stderr, "register admin API failed: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "application run failed: %v\n", err)
		os.Exit(1)
	}
}
