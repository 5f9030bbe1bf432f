package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/hubsession/internal/config"
	"github.com/roach88/hubsession/internal/logging"
)

// addSessionFlags registers the device settings on fs under their config
// keys, so a flag the user sets overrides the file and HUBSESSION_* values.
func addSessionFlags(fs *pflag.FlagSet) {
	fs.String(config.KeyConnectionString, "", "device or module connection string")
	fs.String(config.KeyProductInfo, "", "product info prefixed to the user agent")
	fs.String(config.KeyModelID, "", "digital twin model id")
	fs.Duration(config.KeyMessageTimeout, 0, "telemetry expiry; 0 waits forever")
	fs.Int(config.KeyDiagSamplingPercentage, 0, "percentage of telemetry stamped with diagnostics")
	fs.Duration(config.KeyTokenLifetime, 0, "SAS token lifetime (default 1h)")
	fs.String(config.KeyRetryPolicy, "", "transport retry policy (default EXPONENTIAL_BACKOFF_WITH_JITTER)")
	fs.Duration(config.KeyRetryTimeoutLimit, 0, "give up reconnecting after this long; 0 retries forever")
	fs.String(config.KeyLogLevel, "", "log level (trace|debug|info|warn|error|disabled)")
	fs.String(config.KeyJournal, "", "SQLite outcome journal path")
}

// loadSettings resolves the device settings for cmd. Only flags the user
// changed take part; defaults come from the config package.
func loadSettings(opts *RootOptions, cmd *cobra.Command) (*config.Device, error) {
	changed := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed.AddFlag(f)
	})
	return config.Load(opts.Config, changed)
}

// sessionLogging returns the logger settings for d, raised to debug by
// --verbose.
func sessionLogging(opts *RootOptions, d *config.Device) logging.Config {
	cfg := d.Logging()
	cfg.Debug = opts.Verbose
	cfg.TimeFormat = time.RFC3339Nano
	return cfg
}
