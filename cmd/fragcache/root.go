package main

import (
	"github.com/spf13/cobra"

	"github.com/jonwraymond/fragcache/config"
	"github.com/jonwraymond/fragcache/secret"
)

// flags holds persistent overrides applied on top of the loaded config.
type flags struct {
	backend      string
	redisURL     string
	boltPath     string
	settings     string
	settingsPath string
	auxDir       string
	logLevel     string
	secretsDir   string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "fragcache",
		Short: "Fragment cache administration.",
		Long: `fragcache manages cached page fragments for one or more tenants.

Configuration comes from FRAGCACHE_* environment variables. Values may use
${VAR} expansion and secretref:<provider>:<ref> references. Flags override
the environment.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return f.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.backend, "backend", "", "fragment backend: memory, redis, bolt or none")
	pf.StringVar(&f.redisURL, "redis-url", "", "redis connection URL")
	pf.StringVar(&f.boltPath, "bolt-path", "", "bbolt file for the fragment backend")
	pf.StringVar(&f.settings, "settings", "", "settings store: memory or bolt")
	pf.StringVar(&f.settingsPath, "settings-path", "", "bbolt file for the settings store")
	pf.StringVar(&f.auxDir, "aux-dir", "", "directory of file-based state removed by uninstall")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&f.secretsDir, "secrets-dir", "", "directory served by the secretref:file provider")

	root.AddCommand(
		newServeCmd(f),
		newStatusCmd(f),
		newToggleCmd(f, "enable", true),
		newToggleCmd(f, "disable", false),
		newPurgeCmd(f),
		newActivateCmd(f),
		newDeactivateCmd(f),
		newUninstallCmd(f),
		newTenantCmd(f),
		newTokenCmd(f),
	)
	return root
}

func (f *flags) load(cmd *cobra.Command) error {
	configs := map[string]map[string]any{"env": {}}
	if f.secretsDir != "" {
		configs["file"] = map[string]any{"dir": f.secretsDir}
	}
	resolver, err := secret.DefaultRegistry.NewResolver(true, configs)
	if err != nil {
		return err
	}
	defer resolver.Close()

	cfg, err := config.Load(cmd.Context(), resolver)
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("backend") {
		cfg.Backend.Kind = f.backend
	}
	if changed("redis-url") {
		cfg.Backend.RedisURL = f.redisURL
	}
	if changed("bolt-path") {
		cfg.Backend.BoltPath = f.boltPath
	}
	if changed("settings") {
		cfg.Settings.Kind = f.settings
	}
	if changed("settings-path") {
		cfg.Settings.Path = f.settingsPath
	}
	if changed("aux-dir") {
		cfg.Settings.AuxDir = f.auxDir
	}
	if changed("log-level") {
		cfg.Observe.Logging.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.cfg = cfg
	return nil
}
