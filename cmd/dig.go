package cmd

import (
	"go.uber.org/dig"

	"github.com/upkeeper/upkeeper/application"
	"github.com/upkeeper/upkeeper/config"
	"github.com/upkeeper/upkeeper/domain"
	"github.com/upkeeper/upkeeper/infrastructure/azuredevops"
	updaterPkg "github.com/upkeeper/upkeeper/infrastructure/updater"
)

// app bundles the objects the commands pull out of the container.
type app struct {
	dig.In

	Provider domain.Provider
	Updaters *updaterPkg.Registry
	Service  *application.Service
}

// injectApp wires the full object graph for one configuration.
func injectApp(cfg *config.Config) (*app, error) {
	container := dig.New()

	constructors := []interface{}{
		func() *config.Config { return cfg },
		newProvider,
		buildUpdaterRegistry,
		application.NewTicketManager,
		application.NewPipeline,
		application.NewService,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}

	var result *app
	if err := container.Invoke(func(a app) {
		result = &a
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func newProvider(cfg *config.Config) domain.Provider {
	return azuredevops.NewClient(cfg.Endpoint, cfg.Organization, cfg.Token)
}

func buildUpdaterRegistry() *updaterPkg.Registry {
	// Update capabilities are registered here by builds that link them in;
	// the orchestrator itself ships none.
	return updaterPkg.NewRegistry()
}
