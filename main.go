package main

import (
	"flag"

	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"

	"github.com/roomiez/webapp/internal/api"
	"github.com/roomiez/webapp/internal/config"
	"github.com/roomiez/webapp/internal/logging"
	"github.com/roomiez/webapp/internal/storage"
	"github.com/roomiez/webapp/internal/web"
)

func main() {
	var configPath = flag.String("config", "", "path to a yaml config file")
	flag.Parse()

	newConfigPath := func() config.Path {
		return config.Path(*configPath)
	}

	app := fx.New(
		fx.Provide(
			newConfigPath,
			config.New,
			logging.New,
			storage.New,
			clockwork.NewRealClock,
			api.NewClient,
			web.New,
		),
		fx.Invoke(web.RegisterHooks),
	)

	app.Run()
}
