// Package cli provides the cobra commands for maintd.
package cli

import (
	gocontext "context"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/maintd/internal/ctxutil"
	"github.com/example/maintd/internal/wire"
)

// ActorEnv names the environment variable consulted when --actor is not given.
const ActorEnv = "MAINTD_ACTOR"

// globalActorID stores the actor ID for the current CLI invocation.
// Set once at startup by DetectAndStoreActor().
var globalActorID string

// BindGlobalFlags adds the persistent --config and --actor flags to root and
// applies them before any subcommand runs.
func BindGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "Path to config file (default .maintd/config.yaml)")
	root.PersistentFlags().String("actor", "", "Actor ID recorded on writes (default $"+ActorEnv+")")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("config")
		wire.SetConfigPath(path)

		actor, _ := cmd.Flags().GetString("actor")
		DetectAndStoreActor(actor)
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		wire.Close()
	}
}

// DetectAndStoreActor stores the explicit actor, falling back to $MAINTD_ACTOR.
func DetectAndStoreActor(explicit string) {
	if explicit != "" {
		globalActorID = explicit
		return
	}
	globalActorID = os.Getenv(ActorEnv)
}

// GetActorID returns the stored actor ID from CLI startup.
func GetActorID() string {
	return globalActorID
}

// NewContext creates a context.Background() with the current actor ID embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalActorID != "" {
		return ctxutil.WithActorID(ctx, globalActorID)
	}
	return ctx
}
