package injector

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/grove/internal/config"
	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/server"
	"github.com/zeusync/grove/internal/simulation"
)

// App is the assembled process: a simulation, its observer server and the
// logger they share.
type App struct {
	Config     config.Config
	Logger     log.Log
	Simulation *simulation.Simulation
	// Server is nil when no listen address is configured.
	Server *server.Server
}

// Run drives the simulation loop and the observer server until ctx is done
// or either of them fails.
func (a *App) Run(ctx context.Context) error {
	if err := a.Simulation.Start(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sim := a.Config.Simulation
		return a.Simulation.Run(ctx, sim.TickInterval, sim.TimeScale)
	})
	if a.Server != nil {
		g.Go(func() error {
			return a.Server.Serve(ctx)
		})
	}

	err := g.Wait()
	snap := a.Simulation.Snapshot()
	a.Logger.Info("Simulation finished",
		log.Uint64("tick", a.Simulation.Tick()),
		log.Float64("time", snap.Time),
		log.String("digest", snap.DigestHex()),
	)
	return err
}
