package edge

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Environment variable names injected by the edge runtime.
const (
	EnvConnectionString  = "EdgeHubConnectionString"
	EnvCACertificateFile = "EdgeModuleCACertificateFile"

	// SASTokenAuthScheme is the only supported IOTEDGE_AUTHSCHEME value.
	SASTokenAuthScheme = "sasToken"
)

// ErrEnvironment reports a missing or malformed edge environment.
var ErrEnvironment = errors.New("edge: invalid environment")

// runtimeEnv holds the IOTEDGE_* variables.
type runtimeEnv struct {
	AuthScheme      string `envconfig:"AUTHSCHEME" required:"true"`
	DeviceID        string `envconfig:"DEVICEID" required:"true"`
	HubHostName     string `envconfig:"IOTHUBHOSTNAME" required:"true"`
	GatewayHostName string `envconfig:"GATEWAYHOSTNAME" required:"true"`
	ModuleID        string `envconfig:"MODULEID" required:"true"`
	WorkloadURI     string `envconfig:"WORKLOADURI"`
	GenerationID    string `envconfig:"MODULEGENERATIONID"`
}

// Environment is the resolved edge bootstrap input.
type Environment struct {
	// ConnectionString, when set, takes precedence over everything else.
	ConnectionString  string
	CACertificateFile string

	AuthScheme      string
	DeviceID        string
	ModuleID        string
	HubName         string
	HubSuffix       string
	GatewayHostName string
	WorkloadURI     string
	GenerationID    string
}

// UsesConnectionString reports whether bootstrap should go through the
// connection string path.
func (e *Environment) UsesConnectionString() bool {
	return e.ConnectionString != ""
}

// LoadEnvironment reads the edge runtime's variables from the process
// environment.
//
// When EdgeHubConnectionString is set, EdgeModuleCACertificateFile is
// mandatory and nothing else is read. Otherwise every IOTEDGE_* variable
// except the workload ones is mandatory, the auth scheme must be "sasToken",
// and the hub host name must contain a '.' followed by a non-empty suffix.
func LoadEnvironment() (*Environment, error) {
	if cs, ok := os.LookupEnv(EnvConnectionString); ok && cs != "" {
		caFile, ok := os.LookupEnv(EnvCACertificateFile)
		if !ok || caFile == "" {
			return nil, fmt.Errorf("%w: %s is required when %s is set",
				ErrEnvironment, EnvCACertificateFile, EnvConnectionString)
		}
		return &Environment{ConnectionString: cs, CACertificateFile: caFile}, nil
	}

	var re runtimeEnv
	if err := envconfig.Process("IOTEDGE", &re); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvironment, err)
	}
	for name, v := range map[string]string{
		"IOTEDGE_DEVICEID":        re.DeviceID,
		"IOTEDGE_IOTHUBHOSTNAME":  re.HubHostName,
		"IOTEDGE_GATEWAYHOSTNAME": re.GatewayHostName,
		"IOTEDGE_MODULEID":        re.ModuleID,
	} {
		if v == "" {
			return nil, fmt.Errorf("%w: %s is empty", ErrEnvironment, name)
		}
	}

	if re.AuthScheme != SASTokenAuthScheme {
		return nil, fmt.Errorf("%w: IOTEDGE_AUTHSCHEME is %q, only %q is supported",
			ErrEnvironment, re.AuthScheme, SASTokenAuthScheme)
	}

	name, suffix, found := strings.Cut(re.HubHostName, ".")
	if !found {
		return nil, fmt.Errorf("%w: IOTEDGE_IOTHUBHOSTNAME %q requires a '.' separator", ErrEnvironment, re.HubHostName)
	}
	if suffix == "" {
		return nil, fmt.Errorf("%w: IOTEDGE_IOTHUBHOSTNAME %q has no content after '.'", ErrEnvironment, re.HubHostName)
	}

	return &Environment{
		AuthScheme:      re.AuthScheme,
		DeviceID:        re.DeviceID,
		ModuleID:        re.ModuleID,
		HubName:         name,
		HubSuffix:       suffix,
		GatewayHostName: re.GatewayHostName,
		WorkloadURI:     re.WorkloadURI,
		GenerationID:    re.GenerationID,
	}, nil
}
