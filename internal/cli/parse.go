package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hubsession/internal/connstr"
)

// ParseResult describes a parsed connection string. Secrets are redacted.
type ParseResult struct {
	HostName        string   `json:"host_name"`
	HubName         string   `json:"hub_name"`
	DeviceID        string   `json:"device_id"`
	ModuleID        string   `json:"module_id,omitempty"`
	GatewayHostName string   `json:"gateway_host_name,omitempty"`
	Credential      string   `json:"credential"`
	Ignored         []string `json:"ignored,omitempty"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <connection-string>",
		Short: "Parse a connection string",
		Long: `Parse a device or module connection string and show what it names.

Shared access keys and signatures are never printed.

Examples:
  hubsession parse "HostName=myhub.azure-devices.net;DeviceId=dev1;SharedAccessKey=..."
  hubsession parse "$CONNECTION_STRING" --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
}

func runParse(opts *RootOptions, s string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cs, err := connstr.Parse(s)
	if err != nil {
		return out.Fail(ExitFailure, "E_PARSE", "invalid connection string", err)
	}

	result := ParseResult{
		HostName:        cs.HostName(),
		HubName:         cs.HubName,
		DeviceID:        cs.DeviceID,
		ModuleID:        cs.ModuleID,
		GatewayHostName: cs.GatewayHostName,
		Credential:      credentialKind(cs),
		Ignored:         cs.Ignored,
	}
	return out.Emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "Host:       %s\n", result.HostName)
		fmt.Fprintf(w, "Device:     %s\n", result.DeviceID)
		if result.ModuleID != "" {
			fmt.Fprintf(w, "Module:     %s\n", result.ModuleID)
		}
		if result.GatewayHostName != "" {
			fmt.Fprintf(w, "Gateway:    %s\n", result.GatewayHostName)
		}
		fmt.Fprintf(w, "Credential: %s\n", result.Credential)
		if len(result.Ignored) > 0 {
			fmt.Fprintf(w, "Ignored:    %s\n", strings.Join(result.Ignored, ", "))
		}
	})
}

func credentialKind(cs *connstr.ConnectionString) string {
	switch {
	case cs.X509:
		return "x509"
	case cs.UseProvisioning:
		return "provisioning"
	case cs.DeviceKey != "":
		return "shared access key"
	case cs.SASToken != "":
		return "shared access signature"
	}
	return "none"
}
