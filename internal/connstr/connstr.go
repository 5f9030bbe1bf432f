// Package connstr parses hub device and module connection strings.
package connstr

import (
	"errors"
	"fmt"
	"strings"
)

// Recognized keys.
const (
	KeyHostName        = "HostName"
	KeyDeviceID        = "DeviceId"
	KeySharedAccessKey = "SharedAccessKey"
	KeySASToken        = "SharedAccessSignature"
	KeyX509            = "x509"
	KeyUseProvisioning = "UseProvisioning"
	KeyModuleID        = "ModuleId"
	KeyGatewayHostName = "GatewayHostName"
)

// ErrInvalid reports a malformed or incomplete connection string.
var ErrInvalid = errors.New("connstr: invalid connection string")

// ConnectionString is the parsed form.
type ConnectionString struct {
	HubName         string
	HubSuffix       string
	DeviceID        string
	DeviceKey       string
	SASToken        string
	ModuleID        string
	GatewayHostName string
	X509            bool
	UseProvisioning bool

	// Ignored lists unrecognized keys in the order they appeared.
	Ignored []string
}

// HostName returns HubName.HubSuffix.
func (c *ConnectionString) HostName() string {
	return c.HubName + "." + c.HubSuffix
}

// Parse tokenizes s as Key=Value pairs separated by ';'. Values may contain
// '='. The result must name a hub, suffix and device, and carry exactly one
// of SharedAccessKey or SharedAccessSignature unless x509 or UseProvisioning
// is set, in which case it must carry neither.
func Parse(s string) (*ConnectionString, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalid)
	}

	var cs ConnectionString
	for _, pair := range strings.Split(s, ";") {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: malformed pair %q", ErrInvalid, pair)
		}

		switch key {
		case KeyHostName:
			name, suffix, found := strings.Cut(value, ".")
			if !found {
				return nil, fmt.Errorf("%w: %s %q has no suffix", ErrInvalid, KeyHostName, value)
			}
			cs.HubName, cs.HubSuffix = name, suffix
		case KeyDeviceID:
			cs.DeviceID = value
		case KeySharedAccessKey:
			cs.DeviceKey = value
		case KeySASToken:
			cs.SASToken = value
		case KeyModuleID:
			cs.ModuleID = value
		case KeyGatewayHostName:
			cs.GatewayHostName = value
		case KeyX509:
			if value != "true" {
				return nil, fmt.Errorf("%w: %s only accepts true, got %q", ErrInvalid, KeyX509, value)
			}
			cs.X509 = true
		case KeyUseProvisioning:
			if value != "true" {
				return nil, fmt.Errorf("%w: %s only accepts true, got %q", ErrInvalid, KeyUseProvisioning, value)
			}
			cs.UseProvisioning = true
		default:
			cs.Ignored = append(cs.Ignored, key)
		}
	}

	if err := cs.validate(); err != nil {
		return nil, err
	}
	return &cs, nil
}

func (c *ConnectionString) validate() error {
	switch {
	case c.HubName == "" || c.HubSuffix == "":
		return fmt.Errorf("%w: %s is missing", ErrInvalid, KeyHostName)
	case c.DeviceID == "":
		return fmt.Errorf("%w: %s is missing", ErrInvalid, KeyDeviceID)
	}

	hasKey := c.DeviceKey != ""
	hasToken := c.SASToken != ""
	if c.X509 || c.UseProvisioning {
		if hasKey || hasToken {
			return fmt.Errorf("%w: %s and %s cannot be combined with x509 or provisioning",
				ErrInvalid, KeySharedAccessKey, KeySASToken)
		}
		return nil
	}
	if hasKey == hasToken {
		return fmt.Errorf("%w: exactly one of %s or %s is required",
			ErrInvalid, KeySharedAccessKey, KeySASToken)
	}
	return nil
}
