// Package cli implements the eventd command line.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zrkn/eventd/internal/logging"
)

// VersionInfo is build information set via ldflags.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// globals holds the persistent flags and the logger built from them.
type globals struct {
	logLevel  string
	logFormat string
	log       *zap.Logger
}

func (g *globals) logger() *zap.Logger {
	if g.log == nil {
		return zap.NewNop()
	}
	return g.log
}

// NewRootCmd builds the eventd command tree.
func NewRootCmd(info VersionInfo) *cobra.Command {
	g := &globals{}
	defaults := logging.DefaultConfig()

	root := &cobra.Command{
		Use:   "eventd",
		Short: "Typed multicast events for Go",
		Long: "eventd generates strongly typed event types from declaration files " +
			"and runs Lua scripts against declared events.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(logging.Config{
				Level:  g.logLevel,
				Format: g.logFormat,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			g.log = log.Named("eventd")
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = g.logger().Sync()
		},
	}

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", defaults.Level, "log level (debug, info, warn, error); env "+logging.EnvLevel)
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", defaults.Format, "log format (console, json)")

	root.AddCommand(
		newGenerateCmd(g),
		newCheckCmd(g),
		newRunCmd(g),
		newVersionCmd(info),
	)
	return root
}

// Execute runs the command line with os.Args.
func Execute(info VersionInfo) error {
	return NewRootCmd(info).Execute()
}
