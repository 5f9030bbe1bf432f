package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/hubsession/internal/config"
	"github.com/roach88/hubsession/internal/connstr"
)

// SettingsSummary is the resolved configuration with secrets left out.
type SettingsSummary struct {
	HostName               string `json:"host_name"`
	DeviceID               string `json:"device_id"`
	ModuleID               string `json:"module_id,omitempty"`
	ProductInfo            string `json:"product_info,omitempty"`
	ModelID                string `json:"model_id,omitempty"`
	MessageTimeout         string `json:"message_timeout"`
	DiagSamplingPercentage int    `json:"diag_sampling_percentage"`
	TokenLifetime          string `json:"sas_token_lifetime"`
	RetryPolicy            string `json:"retry_policy"`
	RetryTimeoutLimit      string `json:"retry_timeout_limit"`
	LogLevel               string `json:"log_level"`
	Journal                string `json:"journal,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate device session settings",
		Long: `Resolve settings from --config, HUBSESSION_* environment variables and
flags, check them against the settings schema, and parse the connection
string. Nothing is sent.

Examples:
  hubsession validate -c device.yaml
  hubsession validate -c device.yaml --retry-policy linear_backoff
  hubsession validate --connection-string "$CONNECTION_STRING" --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	addSessionFlags(cmd.Flags())
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	settings, err := loadSettings(opts, cmd)
	if err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return out.Fail(ExitFailure, "E_CONFIG_INVALID", "settings failed validation", err)
		}
		return out.Fail(ExitCommandError, "E_CONFIG", "failed to load settings", err)
	}
	out.VerboseLog("settings resolved from %q and environment", opts.Config)

	cs, err := connstr.Parse(settings.ConnectionString)
	if err != nil {
		return out.Fail(ExitFailure, "E_PARSE", "invalid connection string", err)
	}

	summary := SettingsSummary{
		HostName:               cs.HostName(),
		DeviceID:               cs.DeviceID,
		ModuleID:               cs.ModuleID,
		ProductInfo:            settings.ProductInfo,
		ModelID:                settings.ModelID,
		MessageTimeout:         settings.MessageTimeout.String(),
		DiagSamplingPercentage: settings.DiagSamplingPercentage,
		TokenLifetime:          settings.TokenLifetime.String(),
		RetryPolicy:            settings.RetryPolicy,
		RetryTimeoutLimit:      settings.RetryTimeoutLimit.String(),
		LogLevel:               settings.LogLevel,
		Journal:                settings.Journal,
	}
	return out.Emit(summary, func(w io.Writer) {
		fmt.Fprintln(w, "✓ Settings valid")
		fmt.Fprintf(w, "  Device:          %s/%s\n", summary.HostName, deviceLabel(summary.DeviceID, summary.ModuleID))
		fmt.Fprintf(w, "  Message timeout: %s\n", summary.MessageTimeout)
		fmt.Fprintf(w, "  Token lifetime:  %s\n", summary.TokenLifetime)
		fmt.Fprintf(w, "  Retry policy:    %s (limit %s)\n", summary.RetryPolicy, summary.RetryTimeoutLimit)
		fmt.Fprintf(w, "  Log level:       %s\n", summary.LogLevel)
		if summary.Journal != "" {
			fmt.Fprintf(w, "  Journal:         %s\n", summary.Journal)
		}
	})
}

func deviceLabel(deviceID, moduleID string) string {
	if moduleID == "" {
		return deviceID
	}
	return deviceID + "/" + moduleID
}
