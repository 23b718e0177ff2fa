// Package cli implements the menued command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mchmarny/menued/pkg/config"
	"github.com/mchmarny/menued/pkg/editor"
	"github.com/mchmarny/menued/pkg/logger"
	"github.com/mchmarny/menued/pkg/menu"
	"github.com/mchmarny/menued/pkg/metric"
	"github.com/mchmarny/menued/pkg/storage"
	"github.com/mchmarny/menued/pkg/store"
)

// BuildInfo is stamped into the binary at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type app struct {
	info BuildInfo
	cfg  *config.Config

	envFile      string
	store        string
	key          string
	idStrategy   string
	validateDrop bool
	logLevel     string
}

// NewRootCommand builds the menued command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	a := &app{info: info}

	root := &cobra.Command{
		Use:           "menued",
		Short:         "Edit a hierarchical menu persisted as a single JSON document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.envFile, "env-file", "", "Path to a .env file (default ./.env when present)")
	f.StringVar(&a.store, "store", "", "Storage DSN: file:<dir>, sqlite:<path>, postgres://..., s3://bucket/prefix, memory:")
	f.StringVar(&a.key, "key", "", "Storage key of the forest (default \"data\")")
	f.StringVar(&a.idStrategy, "id-strategy", "", "Id strategy for new nodes: positional or uuid")
	f.BoolVar(&a.validateDrop, "validate-drop", false, "Reject moves that change a node's depth")
	f.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")

	root.AddCommand(
		a.serveCommand(),
		a.showCommand(),
		a.addCommand(),
		a.editCommand(),
		a.deleteCommand(),
		a.moveCommand(),
		a.queryCommand(),
		a.resetCommand(),
		a.mcpCommand(),
		a.versionCommand(),
	)
	return root
}

// Execute runs the command line and exits non-zero on error.
func Execute(info BuildInfo) {
	if err := NewRootCommand(info).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configure resolves the config: env file, then environment, then flags.
func (a *app) configure(cmd *cobra.Command) error {
	if a.logLevel != "" {
		logger.SetDefaultLoggerWithLevel(logger.Module, a.info.Version, a.logLevel)
	} else {
		logger.SetDefaultLogger(logger.Module, a.info.Version)
	}

	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("store") {
		cfg.Store = a.store
	}
	if f.Changed("key") {
		cfg.Key = a.key
	}
	if f.Changed("id-strategy") {
		cfg.IDStrategy = a.idStrategy
	}
	if f.Changed("validate-drop") {
		cfg.ValidateDrop = a.validateDrop
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	return nil
}

// workspace is an initialized store and editor over the configured backend.
type workspace struct {
	kv     storage.KV
	store  *store.Store
	editor *editor.Editor
}

func (w *workspace) Close() {
	_ = w.kv.Close()
}

func (a *app) open(ctx context.Context, counter metric.IncrementalCounter) (*workspace, error) {
	ids, err := menu.NewIDGenerator(a.cfg.IDStrategy)
	if err != nil {
		return nil, err
	}

	kv, err := storage.Open(ctx, a.cfg.Store, a.cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	s := store.New(kv, store.WithKey(a.cfg.Key))
	if err := s.Initialize(ctx); err != nil {
		_ = kv.Close()
		return nil, err
	}

	if counter == nil {
		counter = metric.Noop{}
	}
	ed := editor.New(s,
		editor.WithIDGenerator(ids),
		editor.WithSameLevelValidation(a.cfg.ValidateDrop),
		editor.WithCounter(counter),
	)
	return &workspace{kv: kv, store: s, editor: ed}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
