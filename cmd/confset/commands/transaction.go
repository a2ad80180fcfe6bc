package commands

import (
	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/lockfile"
	"github.com/confset/confset/pkg/transaction"
	"github.com/confset/confset/pkg/ui"
	"github.com/spf13/cobra"
)

// execPlan runs a plan, holding the repository lock for real runs.
// Dry-run never locks: it has no side effects to serialize.
func execPlan(env *appEnv, engine *transaction.Engine, plan *transaction.Plan) (*transaction.Result, error) {
	if dryRun {
		return engine.Execute(plan, true)
	}
	if err := env.fs.MkdirAll(env.paths.RepoRoot(), 0755); err != nil {
		return nil, errors.Wrap(err, errors.ErrIOFailure, "failed to create repository root")
	}
	lock, err := lockfile.Acquire(env.paths.LockPath(), env.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()
	return engine.Execute(plan, false)
}

func newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <name>",
		Short: MsgActivateShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			engine := transaction.New(env.fs, env.paths, env.cfg)
			plan, err := engine.PlanActivate(args[0], transaction.ActivateOptions{Force: force})
			if err != nil {
				return err
			}
			res, err := execPlan(env, engine, plan)
			if res != nil {
				cmd.Print(ui.RenderResult(res))
			}
			return err
		},
	}
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: MsgAddShort,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			engine := transaction.New(env.fs, env.paths, env.cfg)
			plan, err := engine.PlanAdd(args, transaction.AddOptions{Force: force})
			if err != nil {
				return err
			}
			res, err := execPlan(env, engine, plan)
			if res != nil {
				cmd.Print(ui.RenderResult(res))
			}
			return err
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>...",
		Short: MsgRemoveShort,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			engine := transaction.New(env.fs, env.paths, env.cfg)
			plan, err := engine.PlanRemove(args, transaction.RemoveOptions{})
			if err != nil {
				return err
			}
			res, err := execPlan(env, engine, plan)
			if res != nil {
				cmd.Print(ui.RenderResult(res))
			}
			return err
		},
	}
}
