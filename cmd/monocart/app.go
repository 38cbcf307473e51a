package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"monocart/internal/apiclient"
	"monocart/internal/config"
	"monocart/internal/logger"
	"monocart/internal/normalize"
	"monocart/internal/session"
	"monocart/internal/storage"
	"monocart/internal/store"
)

// openStorage opens the session storage selected by the configuration
type openStorage func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error)

// app is the state layer assembled for one command invocation
type app struct {
	out     io.Writer
	log     *zap.Logger
	storage storage.Storage
	session *session.Session
	store   *store.Store
}

type rootOptions struct {
	envFile string
	apiURL  string
	verbose bool
}

// newRootCmd builds the command tree. The returned func releases what the
// command opened and must run after Execute, whether or not it failed.
func newRootCmd(out io.Writer, open openStorage) (*cobra.Command, func() error) {
	opts := &rootOptions{}
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "monocart",
		Short:         "Browse the Monocart storefront from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.start(cmd.Context(), opts, open)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded into the environment")
	flags.StringVar(&opts.apiURL, "api", "", "API base URL, overrides API_BASE_URL")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProductsCmd(a),
		newProductCmd(a),
		newCategoriesCmd(a),
		newSubcategoriesCmd(a),
		newOrdersCmd(a),
		newCancelOrderCmd(a),
	)

	return root, a.close
}

func (a *app) start(ctx context.Context, opts *rootOptions, open openStorage) error {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", opts.envFile, err)
	}

	cfg := config.Load()
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
		cfg.API.ImageURL = opts.apiURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.log = zap.NewNop()
	if opts.verbose {
		log, err := logger.NewCLI(cfg.Server.Env)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.log = log
	}

	st, err := open(ctx, cfg, a.log)
	if err != nil {
		return err
	}
	a.storage = st

	api, err := apiclient.New(cfg.API.BaseURL, apiclient.WithTimeout(cfg.API.Timeout), apiclient.WithLogger(a.log))
	if err != nil {
		return err
	}
	norm, err := normalize.New(cfg.API.ImageURL)
	if err != nil {
		return err
	}

	a.session = session.New(api, st, a.log)
	if err := a.session.Initialize(ctx); err != nil {
		return err
	}

	a.store = store.New(store.Deps{
		API:            api,
		Normalizer:     norm,
		Logger:         a.log,
		OnUnauthorized: a.session.OnUnauthorized,
	}, cfg.Staleness, a.session)

	return nil
}

func (a *app) close() error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.storage == nil {
		return nil
	}
	st := a.storage
	a.storage = nil
	return st.Close()
}

var errLoginRequired = errors.New("not logged in, run monocart login first")

// requireLogin fails before any request that needs a token
func (a *app) requireLogin() error {
	if !a.session.IsLoggedIn() {
		return errLoginRequired
	}
	return nil
}
