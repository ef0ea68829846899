package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/vehicore/internal/config"
	"github.com/zeusync/vehicore/internal/core/events/bus"
	"github.com/zeusync/vehicore/internal/core/observability/log"
	"github.com/zeusync/vehicore/internal/core/storage"
	"github.com/zeusync/vehicore/internal/core/storage/sqlite"
	"github.com/zeusync/vehicore/internal/core/systems/physics"
	"github.com/zeusync/vehicore/internal/core/variables"
	"github.com/zeusync/vehicore/internal/server"
	"github.com/zeusync/vehicore/internal/sim"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideStore,
	wire.Bind(new(storage.VariableStore), new(*sqlite.Store)),
	ProvideBus,
	sim.NewBusBroadcaster,
	wire.Bind(new(variables.Broadcaster), new(*sim.BusBroadcaster)),
	physics.NewGridWorld,
	ProvideSimulation,
	wire.Bind(new(server.Controller), new(*sim.Simulation)),
	ProvideHub,
	ProvideServer,
	NewApp,
)

func ProvideLogger(cfg *config.Config) *log.Logger {
	return log.NewWithOptions(log.Options{
		Level:            log.ParseLevel(cfg.LogLevel),
		Format:           cfg.LogFormat,
		SampleInitial:    100,
		SampleThereafter: 100,
	})
}

// ProvideStore opens the variable database. The cleanup closes it.
func ProvideStore(cfg *config.Config, logger log.Log) (*sqlite.Store, func(), error) {
	store, err := sqlite.Open(cfg.Storage.Path, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing variable store", log.Error(err))
		}
	}
	return store, cleanup, nil
}

func ProvideBus() *bus.Bus[variables.ChangeEvent] {
	return bus.New[variables.ChangeEvent]()
}

func ProvideSimulation(cfg *config.Config, world *physics.GridWorld, store storage.VariableStore, sink variables.Broadcaster, logger log.Log) *sim.Simulation {
	return sim.New(sim.Config{
		TickInterval: cfg.Simulation.TickInterval(),
		SaveInterval: cfg.Simulation.SaveInterval,
	}, world, store, sink, logger)
}

func serverConfig(cfg *config.Config) server.Config {
	sc := server.DefaultServerConfig()
	sc.Addr = cfg.Server.Addr
	sc.WriteTimeout = cfg.Server.WriteTimeout
	sc.ShutdownTimeout = cfg.Server.ShutdownTimeout
	return sc
}

func ProvideHub(cfg *config.Config, controller server.Controller, logger log.Log) *server.Hub {
	return server.NewHub(serverConfig(cfg).HubConfig(), controller, logger)
}

// ProvideServer builds the HTTP server and registers the bus and storage
// sections of /healthz.
func ProvideServer(
	cfg *config.Config,
	hub *server.Hub,
	simulation *sim.Simulation,
	b *bus.Bus[variables.ChangeEvent],
	store storage.VariableStore,
	logger log.Log,
) *server.Server {
	srv := server.NewServer(serverConfig(cfg), hub, func() any { return simulation.Snapshot() }, logger)
	srv.AddStatsSource("bus", busStats(b))
	srv.AddStatsSource("storage", storageStats(store))
	return srv
}
