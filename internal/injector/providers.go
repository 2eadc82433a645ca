package injector

import (
	"os"

	"github.com/google/wire"

	"github.com/zeusync/grove/internal/config"
	"github.com/zeusync/grove/internal/core/events/bus"
	"github.com/zeusync/grove/internal/core/images"
	"github.com/zeusync/grove/internal/core/loader"
	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/core/storage/journal"
	"github.com/zeusync/grove/internal/server"
	"github.com/zeusync/grove/internal/simulation"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideImages,
	ProvideDocument,
	bus.New,
	ProvideJournal,
	ProvideSimulation,
	ProvideServer,
	wire.Bind(new(images.Provider), new(*images.Store)),
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg config.Config) log.Log {
	return cfg.Logger()
}

// ProvideImages loads the configured image manifest, or an empty store.
func ProvideImages(cfg config.Config) (*images.Store, error) {
	if cfg.Simulation.Images == "" {
		return images.NewStore(nil), nil
	}
	f, err := os.Open(cfg.Simulation.Images)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return images.LoadManifest(f)
}

func ProvideDocument(cfg config.Config) (*loader.Document, error) {
	return loader.DecodeFile(cfg.Simulation.World)
}

// ProvideJournal opens the configured journal. It returns nil when
// recording is disabled.
func ProvideJournal(cfg config.Config, logger log.Log) (*journal.Journal, func(), error) {
	if cfg.Journal.Path == "" {
		return nil, func() {}, nil
	}
	j, err := journal.Open(cfg.Journal.Path, logger.Named("journal"))
	if err != nil {
		return nil, nil, err
	}
	return j, func() {
		if err := j.Close(); err != nil {
			logger.Warn("Failed to close journal", log.Error(err))
		}
	}, nil
}

func ProvideSimulation(
	cfg config.Config,
	doc *loader.Document,
	p images.Provider,
	b bus.EventBus,
	j *journal.Journal,
	logger log.Log,
) (*simulation.Simulation, error) {
	opts := []simulation.Option{
		simulation.WithSeed(cfg.Simulation.Seed),
		simulation.WithTuning(cfg.Simulation.Tuning),
		simulation.WithEventBus(b),
		simulation.WithLogger(logger),
		simulation.WithDocumentName(cfg.Simulation.World),
	}
	if j != nil {
		opts = append(opts, simulation.WithRecorder(j, cfg.Journal.Every))
	}
	return simulation.New(doc, p, opts...)
}

// ProvideServer returns nil when no listen address is configured.
func ProvideServer(cfg config.Config, sim *simulation.Simulation, logger log.Log) *server.Server {
	if cfg.Server.ListenAddr == "" {
		return nil
	}
	sc := server.DefaultServerConfig()
	sc.ListenAddr = cfg.Server.ListenAddr
	sc.ShutdownTimeout = cfg.Server.ShutdownTimeout
	return server.NewServer(sim, sc, logger)
}
