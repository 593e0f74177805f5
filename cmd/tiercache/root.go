package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/tiercache"
	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/config"
	"github.com/unkn0wn-root/tiercache/internal/logging"
	zaplog "github.com/unkn0wn-root/tiercache/log/zap"
)

type globalFlags struct {
	configPath string
	dir        string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "tiercache",
		Short: "Inspect and edit a tiercache filesystem cache",
		Long: `tiercache reads and writes entries of a filesystem cache directory
using the same layout and record format as the library.

Examples:
  # Store a value for ten minutes
  tiercache set greeting hello --ttl 10m

  # Read it back
  tiercache get greeting

  # Use a config file and override its directory
  tiercache --config tiercache.yaml --dir /var/cache/app clear`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file (yaml, toml or json)")
	root.PersistentFlags().StringVarP(&g.dir, "dir", "d", "", "cache directory (overrides the config file)")

	root.AddCommand(
		newGetCmd(&g),
		newSetCmd(&g),
		newDeleteCmd(&g),
		newHasCmd(&g),
		newClearCmd(&g),
	)
	return root
}

// session is an opened pool plus the logger that must be synced on close.
type session struct {
	pool tiercache.Pool[[]byte]
	log  *zap.Logger
}

func (s *session) close() { _ = s.log.Sync() }

func openSession(g *globalFlags) (*session, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.dir != "" {
		cfg.Directory = g.dir
	}

	log, err := logging.New(*cfg)
	if err != nil {
		return nil, err
	}

	st, err := cfg.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("opening cache directory: %w", err)
	}
	pool, err := tiercache.New(tiercache.Options[[]byte]{
		Store:  st,
		Codec:  codec.Bytes{},
		Logger: zaplog.New(log),
	})
	if err != nil {
		return nil, err
	}
	log.Debug("cache opened", zap.String("dir", st.Root()))
	return &session{pool: pool, log: log}, nil
}
