package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/keepsake/internal/config"
	"github.com/roach88/keepsake/internal/store"
)

// session bundles the resolved configuration and an open store for one
// command invocation. Close it when the command finishes.
type session struct {
	cfg   config.Config
	store *store.Store
}

func (s *session) Close() error {
	return s.store.Close()
}

// openSession loads configuration and opens the store. Failures here are
// command errors (exit code 2): nothing was validated or decoded yet.
func openSession(opts *RootOptions, formatter *OutputFormatter) (*session, error) {
	path := opts.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "resolve config path", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	var storeOpts []store.Option
	if opts.Verbose {
		// Recovery logging is off by default for one-shot commands.
		storeOpts = append(storeOpts, store.WithLogger(slog.Default()))
	}

	st, err := store.Open(cfg.DBPath, storeOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("open store %s", cfg.DBPath), err)
	}

	formatter.VerboseLog("store: %s", cfg.DBPath)
	return &session{cfg: cfg, store: st}, nil
}

// newFormatter builds the output formatter for a command. Verbose logs go to
// stderr so JSON output stays parseable.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
