package commands

import (
	"os"
	"strings"

	"github.com/confset/confset/pkg/config"
	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/fetch"
	"github.com/confset/confset/pkg/repository"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: MsgExportShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + ".tar.gz"
			}
			sum, err := repository.New(env.fs, env.paths, env.cfg).Export(args[0], out)
			if err != nil {
				return err
			}
			cmd.Printf(MsgExported, args[0], out, sum)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Archive path (default <name>.tar.gz)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "import <archive> <name>",
		Short: MsgImportShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			if err := repository.New(env.fs, env.paths, env.cfg).Import(args[0], args[1], overwrite); err != nil {
				return err
			}
			cmd.Printf(MsgImported, args[1], args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing config set of the same name")
	return cmd
}

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull <ref> <name>",
		Short: MsgPullShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			ref, name := args[0], args[1]

			var fetcher fetch.Fetcher = fetch.DirFetcher{}
			if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
				fetcher = fetch.NewHTTPFetcher()
			}
			if err := repository.New(env.fs, env.paths, env.cfg).Pull(cmd.Context(), fetcher, ref, name); err != nil {
				return err
			}
			cmd.Printf(MsgPulled, ref, name)
			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: MsgInitShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newAppEnv()
			if err != nil {
				return err
			}
			path := env.paths.RepoConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf(errors.ErrAlreadyExists, "%s already exists (use --force to overwrite)", path)
			}

			data, err := config.RenderStarter(env.cfg)
			if err != nil {
				return err
			}
			if err := env.fs.MkdirAll(env.paths.RepoRoot(), 0755); err != nil {
				return errors.Wrap(err, errors.ErrIOFailure, "failed to create repository root")
			}
			if err := env.fs.WriteFile(path, data, 0644); err != nil {
				return errors.Wrapf(err, errors.ErrIOFailure, "failed to write %s", path)
			}
			cmd.Printf(MsgInitDone, path)
			return nil
		},
	}
}
