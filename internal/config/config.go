// Package config loads device session settings from a file, HUBSESSION_*
// environment variables and command-line flags, and validates them
// against an embedded CUE schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/hubsession/internal/auth"
	"github.com/roach88/hubsession/internal/engine"
	"github.com/roach88/hubsession/internal/logging"
	"github.com/roach88/hubsession/internal/transport"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "HUBSESSION"

// Configuration keys. The same names are used in files, as flags, and,
// upper-cased with '_' for '-', as environment variables.
const (
	KeyConnectionString       = "connection-string"
	KeyProductInfo            = "product-info"
	KeyModelID                = "model-id"
	KeyMessageTimeout         = "message-timeout"
	KeyDiagSamplingPercentage = "diag-sampling-percentage"
	KeyTokenLifetime          = "sas-token-lifetime"
	KeyRetryPolicy            = "retry-policy"
	KeyRetryTimeoutLimit      = "retry-timeout-limit"
	KeyLogLevel               = "log-level"
	KeyJournal                = "journal"
)

// ErrInvalid is returned when settings fail schema validation.
var ErrInvalid = errors.New("invalid device config")

// Device holds the settings for one device session.
type Device struct {
	ConnectionString       string
	ProductInfo            string
	ModelID                string
	MessageTimeout         time.Duration
	DiagSamplingPercentage int
	TokenLifetime          time.Duration
	RetryPolicy            string
	RetryTimeoutLimit      time.Duration
	LogLevel               string
	// Journal is the SQLite outcome journal path; empty disables it.
	Journal string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyMessageTimeout, time.Duration(0))
	v.SetDefault(KeyDiagSamplingPercentage, 0)
	v.SetDefault(KeyTokenLifetime, time.Duration(auth.DefaultTokenLifetime)*time.Second)
	v.SetDefault(KeyRetryPolicy, transport.RetryExponentialBackoffWithJitter.String())
	v.SetDefault(KeyRetryTimeoutLimit, time.Duration(0))
	v.SetDefault(KeyLogLevel, "info")
}

// Load reads path (any format viper understands; skipped when empty), then
// HUBSESSION_* variables, then flags that were set explicitly. Durations use
// Go syntax ("90s", "1h").
func Load(path string, flags *pflag.FlagSet) (*Device, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	d := &Device{
		ConnectionString:       strings.TrimSpace(v.GetString(KeyConnectionString)),
		ProductInfo:            v.GetString(KeyProductInfo),
		ModelID:                v.GetString(KeyModelID),
		MessageTimeout:         v.GetDuration(KeyMessageTimeout),
		DiagSamplingPercentage: v.GetInt(KeyDiagSamplingPercentage),
		TokenLifetime:          v.GetDuration(KeyTokenLifetime),
		RetryPolicy:            strings.ToUpper(strings.TrimSpace(v.GetString(KeyRetryPolicy))),
		RetryTimeoutLimit:      v.GetDuration(KeyRetryTimeoutLimit),
		LogLevel:               strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		Journal:                v.GetString(KeyJournal),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks d against the embedded schema.
func (d *Device) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Device")).Unify(ctx.Encode(d.fields()))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

func (d *Device) fields() map[string]any {
	return map[string]any{
		KeyConnectionString:        d.ConnectionString,
		KeyProductInfo:             d.ProductInfo,
		KeyModelID:                 d.ModelID,
		"message-timeout-ms":       d.MessageTimeout.Milliseconds(),
		KeyDiagSamplingPercentage:  d.DiagSamplingPercentage,
		"sas-token-lifetime-secs":  int64(d.TokenLifetime / time.Second),
		KeyRetryPolicy:             d.RetryPolicy,
		"retry-timeout-limit-secs": int64(d.RetryTimeoutLimit / time.Second),
		KeyLogLevel:                d.LogLevel,
		KeyJournal:                 d.Journal,
	}
}

// Logging returns the logger settings for d.
func (d *Device) Logging() logging.Config {
	return logging.Config{Level: d.LogLevel, Output: "stderr"}
}

// Apply sets the options in d on an existing engine.
func (d *Device) Apply(e *engine.Engine) error {
	if d.ProductInfo != "" {
		if err := e.SetOption(engine.OptionProductInfo, d.ProductInfo); err != nil {
			return err
		}
	}
	if d.ModelID != "" {
		if err := e.SetOption(engine.OptionModelID, d.ModelID); err != nil {
			return err
		}
	}
	if d.MessageTimeout > 0 {
		if err := e.SetOption(engine.OptionMessageTimeout, d.MessageTimeout); err != nil {
			return err
		}
	}
	if d.DiagSamplingPercentage > 0 {
		if err := e.SetOption(engine.OptionDiagSamplingPercentage, uint32(d.DiagSamplingPercentage)); err != nil {
			return err
		}
	}
	if err := e.SetOption(engine.OptionSASTokenLifetime, uint64(d.TokenLifetime/time.Second)); err != nil {
		return err
	}

	policy, ok := transport.ParseRetryPolicy(d.RetryPolicy)
	if !ok {
		return fmt.Errorf("%w: unknown retry policy %q", ErrInvalid, d.RetryPolicy)
	}
	return e.SetRetryPolicy(policy, int(d.RetryTimeoutLimit/time.Second))
}

// NewEngine connects with the configured connection string and applies d.
// The engine is destroyed if any option is rejected.
func (d *Device) NewEngine(provider transport.Provider, opts ...engine.Option) (*engine.Engine, error) {
	e, err := engine.NewFromConnectionString(d.ConnectionString, provider, opts...)
	if err != nil {
		return nil, err
	}
	if err := d.Apply(e); err != nil {
		e.Destroy()
		return nil, err
	}
	return e, nil
}
