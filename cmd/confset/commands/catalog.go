package commands

import (
	"github.com/confset/confset/pkg/diff"
	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/repository"
	"github.com/confset/confset/pkg/ui"
	"github.com/spf13/cobra"
)

// inconsistentErr turns a failed verification into a non-zero exit.
func inconsistentErr(report *repository.Report) error {
	return errors.Newf(errors.ErrInconsistent,
		"%d problems found in config set %q", len(report.Problems), report.Name)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: MsgListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			catalog := repository.New(env.fs, env.paths, env.cfg)
			names, err := catalog.List()
			if err != nil {
				return err
			}
			active, _, err := catalog.ActiveName()
			if err != nil {
				return err
			}
			cmd.Print(ui.RenderList(names, active))
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: MsgInfoShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			info, err := repository.New(env.fs, env.paths, env.cfg).Info(args[0])
			if err != nil {
				return err
			}
			cmd.Print(ui.RenderInfo(info))
			return nil
		},
	}
}

func newDiffCmd() *cobra.Command {
	var includeUnchanged bool
	cmd := &cobra.Command{
		Use:   "diff <nameA> <nameB>",
		Short: MsgDiffShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			entries, err := diff.New(env.fs, env.paths).Diff(args[0], args[1], diff.Options{
				IncludeUnchanged: includeUnchanged,
			})
			if err != nil {
				return err
			}
			cmd.Print(ui.RenderDiff(entries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeUnchanged, "unchanged", false, "Also list unchanged paths")
	return cmd
}

func newCreateCmd() *cobra.Command {
	var template string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: MsgCreateShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			if err := repository.New(env.fs, env.paths, env.cfg).Create(args[0], template); err != nil {
				return err
			}
			cmd.Printf(MsgCreated, args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "Config set to clone")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: MsgDeleteShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			if err := repository.New(env.fs, env.paths, env.cfg).Delete(args[0]); err != nil {
				return err
			}
			cmd.Printf(MsgDeleted, args[0])
			return nil
		},
	}
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: MsgRenameShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			if err := repository.New(env.fs, env.paths, env.cfg).Rename(args[0], args[1]); err != nil {
				return err
			}
			cmd.Printf(MsgRenamed, args[0], args[1])
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <name>",
		Short: MsgVerifyShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			report, err := repository.New(env.fs, env.paths, env.cfg).Verify(args[0])
			if err != nil {
				return err
			}
			cmd.Print(ui.RenderReport(report))
			if !report.OK() {
				return inconsistentErr(report)
			}
			return nil
		},
	}
}
