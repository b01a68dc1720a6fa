package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanhnv2901/seca-traffic/internal/application"
	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
)

// AppContext carries what every command needs once the root pre-run is done.
type AppContext struct {
	Logger   *zap.SugaredLogger
	Config   *CLIConfig
	Services *application.Container
	// Analyzers is only populated for commands that validate the analyzer
	// configuration up front.
	Analyzers []analysis.Analyzer
}

type appContextKey struct{}

var globalAppContext *AppContext

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appContextKey{}, appCtx))
}

func getAppContext(cmd *cobra.Command) *AppContext {
	if ctx := cmd.Context(); ctx != nil {
		if appCtx, ok := ctx.Value(appContextKey{}).(*AppContext); ok {
			return appCtx
		}
	}
	return globalAppContext
}

func (a *AppContext) logger() *zap.SugaredLogger {
	if a == nil || a.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return a.Logger
}
