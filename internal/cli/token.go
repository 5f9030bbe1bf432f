package cli

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/hubsession/internal/auth"
	"github.com/roach88/hubsession/internal/connstr"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	Scope   string
	KeyName string
}

// TokenResult is a signed or stored SAS token.
type TokenResult struct {
	Token      string    `json:"token"`
	Scope      string    `json:"scope"`
	Credential string    `json:"credential"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a SAS token for the configured device",
		Long: `Issue a SharedAccessSignature for the device or module named by the
connection string.

A connection string with a SharedAccessKey is signed locally and expires
after --sas-token-lifetime. One carrying a SharedAccessSignature returns
that signature unchanged.

Examples:
  hubsession token --connection-string "$CONNECTION_STRING"
  hubsession token -c device.yaml --sas-token-lifetime 15m
  HUBSESSION_CONNECTION_STRING=... hubsession token --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(opts, cmd)
		},
	}

	addSessionFlags(cmd.Flags())
	cmd.Flags().StringVar(&opts.Scope, "scope", "", "resource URI to sign (default: the device or module URI)")
	cmd.Flags().StringVar(&opts.KeyName, "key-name", "", "shared access policy name")

	return cmd
}

func runToken(opts *TokenOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	settings, err := loadSettings(opts.RootOptions, cmd)
	if err != nil {
		return out.Fail(ExitCommandError, "E_CONFIG", "failed to load settings", err)
	}
	cs, err := connstr.Parse(settings.ConnectionString)
	if err != nil {
		return out.Fail(ExitCommandError, "E_PARSE", "invalid connection string", err)
	}

	clk := opts.now()
	m, err := auth.New(cs.DeviceKey, cs.DeviceID, cs.SASToken, cs.ModuleID, auth.WithClock(clk))
	if err != nil {
		return out.Fail(ExitFailure, "E_CREDENTIAL", "failed to load credentials", err)
	}
	defer m.Close()

	lifetime := uint64(settings.TokenLifetime / time.Second)
	if err := m.SetTokenLifetime(lifetime); err != nil {
		return out.Fail(ExitFailure, "E_CREDENTIAL", "token lifetime rejected", err)
	}

	scope := opts.Scope
	if scope == "" {
		scope = resourceURI(cs)
	}
	out.VerboseLog("signing %s with %s credentials", scope, m.CredentialType())

	token, err := m.SASToken(scope, 0, opts.KeyName)
	if err != nil {
		return out.Fail(ExitFailure, "E_CREDENTIAL", "failed to issue token", err)
	}

	result := TokenResult{
		Token:      token,
		Scope:      scope,
		Credential: m.CredentialType().String(),
	}
	if m.CredentialType() == auth.CredentialDeviceKey {
		result.ExpiresAt = clk.Now().Truncate(time.Second).Add(time.Duration(lifetime) * time.Second).UTC()
	}

	return out.Emit(result, func(w io.Writer) {
		fmt.Fprintln(w, result.Token)
		if !result.ExpiresAt.IsZero() {
			fmt.Fprintf(w, "Expires %s (%s)\n",
				humanize.RelTime(result.ExpiresAt, clk.Now(), "ago", "from now"),
				result.ExpiresAt.Format(time.RFC3339))
		}
	})
}

// resourceURI is the URL-encoded resource a device or module token covers.
func resourceURI(cs *connstr.ConnectionString) string {
	uri := cs.HostName() + "/devices/" + cs.DeviceID
	if cs.ModuleID != "" {
		uri += "/modules/" + cs.ModuleID
	}
	return url.QueryEscape(uri)
}
