package injector

import (
	"context"
	"errors"
	"io/fs"

	"github.com/zeusync/vehicore/internal/config"
	"github.com/zeusync/vehicore/internal/core/events/bus"
	"github.com/zeusync/vehicore/internal/core/observability/log"
	"github.com/zeusync/vehicore/internal/core/variables"
	"github.com/zeusync/vehicore/internal/server"
	"github.com/zeusync/vehicore/internal/sim"
	"golang.org/x/sync/errgroup"
)

// App is the assembled simulator.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Bus        *bus.Bus[variables.ChangeEvent]
	Hub        *server.Hub
	Simulation *sim.Simulation
	Server     *server.Server
}

func NewApp(
	cfg *config.Config,
	logger *log.Logger,
	b *bus.Bus[variables.ChangeEvent],
	hub *server.Hub,
	simulation *sim.Simulation,
	srv *server.Server,
) *App {
	return &App{
		Config:     cfg,
		Logger:     logger,
		Bus:        b,
		Hub:        hub,
		Simulation: simulation,
		Server:     srv,
	}
}

// Run loads the scenario, then runs the tick loop and the HTTP server until
// ctx is cancelled or either of them fails.
func (a *App) Run(ctx context.Context) error {
	sub, err := a.Bus.Subscribe(bus.AllTopics, a.Hub.Handle)
	if err != nil {
		return err
	}
	defer func() { _ = a.Bus.Unsubscribe(sub) }()

	observer := newDeliveryObserver(a.Logger)
	a.Bus.AddObserver(observer)
	defer a.Bus.RemoveObserver(observer)

	if err = a.loadScenario(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Simulation.Run(gctx) })
	g.Go(func() error { return a.Server.Run(gctx) })
	return g.Wait()
}

func (a *App) loadScenario(ctx context.Context) error {
	path := a.Config.Simulation.Scenario
	sc, err := sim.LoadScenarioFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		a.Logger.Warn("scenario file not found, starting with an empty world", log.String("path", path))
		return nil
	}
	if err != nil {
		return err
	}
	return a.Simulation.LoadScenario(ctx, sc)
}
