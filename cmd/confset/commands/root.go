// Package commands wires the confset CLI. Each subcommand maps 1:1 to
// one engine operation; all policy lives in the engine packages.
package commands

import (
	"fmt"
	"os"

	"github.com/confset/confset/internal/version"
	"github.com/confset/confset/pkg/config"
	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/filesystem"
	"github.com/confset/confset/pkg/logging"
	"github.com/confset/confset/pkg/paths"
	"github.com/confset/confset/pkg/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	verbosity int
	dryRun    bool
	force     bool
	confDir   string
	liveRoot  string
)

// NewRootCmd builds the confset command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "confset",
		Short: MsgRootShort,
		Long: `confset manages named sets of configuration files. One set is live
at a time: its files are projected into the system as symlinks pointing
into the set's snapshot, and files can be added to or removed from the
live set transactionally.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Preview changes without executing them")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "Replace non-symlink files standing in the way")
	rootCmd.PersistentFlags().StringVar(&confDir, "conf-dir", "", "Config repository root (default $CONFSET_REPO_ROOT or .)")
	rootCmd.PersistentFlags().StringVar(&liveRoot, "live-root", "", "Root the live tree resolves against (default $CONFSET_LIVE_ROOT or /)")

	rootCmd.AddCommand(
		newActivateCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newDiffCmd(),
		newCreateCmd(),
		newDeleteCmd(),
		newRenameCmd(),
		newListCmd(),
		newInfoCmd(),
		newPullCmd(),
		newExportCmd(),
		newImportCmd(),
		newVerifyCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("confset %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

// appEnv bundles the resolved repository handles a command needs.
type appEnv struct {
	fs    types.FS
	paths paths.Paths
	cfg   *config.Config
}

// newAppEnv resolves the repository and live roots. Precedence for the
// live root: --live-root flag, CONFSET_LIVE_ROOT, the repository's
// .confset.toml, then "/".
func newAppEnv() (*appEnv, error) {
	probe, err := paths.New(confDir, "")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(probe.RepoConfigPath())
	if err != nil {
		return nil, err
	}

	resolvedLive := liveRoot
	if resolvedLive == "" && os.Getenv(paths.EnvLiveRoot) == "" {
		resolvedLive = cfg.LiveRoot
	}
	p, err := paths.New(confDir, resolvedLive)
	if err != nil {
		return nil, err
	}

	return &appEnv{fs: filesystem.NewOS(), paths: p, cfg: cfg}, nil
}

// ExitCode maps an error to the command's exit status. Success is 0;
// each error category gets a stable non-zero code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch errors.CodeOf(err) {
	case errors.ErrNotFound:
		return 2
	case errors.ErrAlreadyExists:
		return 3
	case errors.ErrConflict:
		return 4
	case errors.ErrNotManaged:
		return 5
	case errors.ErrCorrupt:
		return 6
	case errors.ErrInconsistent:
		return 7
	case errors.ErrLocked:
		return 8
	default:
		return 1
	}
}
