package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/marmos91/cask/internal/bytesize"
	"github.com/marmos91/cask/pkg/config"
)

// serviceOptions are the flags shared by start and run. A flag overrides
// the config file and environment only when it was set explicitly.
type serviceOptions struct {
	host          string
	port          int
	dataDir       string
	maxUploadSize bytesize.ByteSize
	logLevel      string
}

func addServiceFlags(cmd *cobra.Command, o *serviceOptions) {
	o.maxUploadSize = config.DefaultMaxUploadSize

	f := cmd.Flags()
	f.StringVar(&o.host, "host", config.DefaultHost, "Address to bind")
	f.IntVar(&o.port, "port", config.DefaultPort, "Port to bind")
	addDataDirFlag(f, &o.dataDir)
	f.Var(&o.maxUploadSize, "max-upload-size", "Maximum upload size in bytes; accepts units such as 100MiB")
	f.StringVar(&o.logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")
}

func (o *serviceOptions) override(flags *pflag.FlagSet) func(*config.Config) {
	return func(cfg *config.Config) {
		if flags.Changed("host") {
			cfg.Server.Host = o.host
		}
		if flags.Changed("port") {
			cfg.Server.Port = o.port
		}
		if flags.Changed("data-dir") {
			cfg.DataDir = o.dataDir
		}
		if flags.Changed("max-upload-size") {
			cfg.Server.MaxUploadSize = o.maxUploadSize
		}
		if flags.Changed("log-level") {
			cfg.Logging.Level = o.logLevel
		}
	}
}

func addDataDirFlag(f *pflag.FlagSet, p *string) {
	f.StringVar(p, "data-dir", config.DefaultDataDir, "Directory holding the PID file, log file, database and artifacts")
}

// dataDirOverride applies --data-dir when it was set explicitly.
func dataDirOverride(flags *pflag.FlagSet, dataDir *string) func(*config.Config) {
	return func(cfg *config.Config) {
		if flags.Changed("data-dir") {
			cfg.DataDir = *dataDir
		}
	}
}

// loadConfig loads the file named by the persistent --config flag, then
// the CASK_* environment, then override.
func loadConfig(cmd *cobra.Command, override func(*config.Config)) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadWithOverrides(path, override)
}
