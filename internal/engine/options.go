package engine

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Option names handled by the engine itself. Any other name is forwarded to
// the transport.
const (
	OptionMessageTimeout         = "messageTimeout"
	OptionProductInfo            = "product_info"
	OptionDiagSamplingPercentage = "diag_sampling_percentage"
	OptionSASTokenRefreshTime    = "sas_token_refresh_time"
	OptionSASTokenLifetime       = "sas_token_lifetime"
	OptionModelID                = "model_id"

	OptionBlobUploadTimeoutSecs      = "blob_upload_timeout_secs"
	OptionCurlVerbose                = "CURLOPT_VERBOSE"
	OptionNetworkInterfaceUploadBlob = "network_interface_upload_to_blob"
	OptionBlobUploadTLSRenegotiation = "blob_upload_tls_renegotiation"
)

var errNoUploader = errors.New("no blob uploader attached")

// SetOption applies a named option.
//
// messageTimeout takes a time.Duration or an integer count of milliseconds;
// zero disables the timeout for messages sent afterwards. product_info and
// model_id take strings; model_id can be set once. diag_sampling_percentage
// takes 0 to 100 and restarts sampling. sas_token_lifetime and
// sas_token_refresh_time take seconds. Blob options go to the uploader only.
// Anything else goes to the transport and, when the transport accepts it,
// to the uploader as well.
func (e *Engine) SetOption(name string, value any) error {
	const op = "SetOption"
	if err := e.checkAlive(op); err != nil {
		return err
	}
	if name == "" || value == nil {
		e.log.Error().Str("option", name).Msg("option name and value are required")
		return invalidArg(op, "option name and value are required")
	}

	switch name {
	case OptionMessageTimeout:
		d, err := durationValue(value)
		if err != nil {
			return invalidArg(op, "%s: %v", name, err)
		}
		e.messageTimeout = d
		return nil

	case OptionProductInfo:
		custom, ok := value.(string)
		if !ok {
			return invalidArg(op, "%s must be a string", name)
		}
		level, err := e.transport.SupportedPlatformInfo()
		if err != nil {
			e.log.Error().Err(err).Msg("failed to query supported platform info")
			return transportFailure(op, err)
		}
		e.productInfo = makeProductInfo(custom, level)
		return nil

	case OptionDiagSamplingPercentage:
		pct, err := uintValue(value)
		if err != nil {
			return invalidArg(op, "%s: %v", name, err)
		}
		if pct > 100 {
			e.log.Error().Uint64("percentage", pct).Msg("diag_sampling_percentage out of range [0, 100]")
			return failure(op, fmt.Errorf("%s %d is out of range [0, 100]", name, pct))
		}
		e.diagPercent = uint32(pct)
		e.diagCounter = 0
		return nil

	case OptionBlobUploadTimeoutSecs, OptionCurlVerbose, OptionNetworkInterfaceUploadBlob, OptionBlobUploadTLSRenegotiation:
		if e.uploader == nil {
			return failure(op, fmt.Errorf("%s: %w", name, errNoUploader))
		}
		if err := e.uploader.SetOption(name, value); err != nil {
			e.log.Error().Err(err).Str("option", name).Msg("blob uploader rejected option")
			return failure(op, err)
		}
		return nil

	case OptionSASTokenRefreshTime, OptionSASTokenLifetime:
		secs, err := uintValue(value)
		if err != nil {
			return invalidArg(op, "%s: %v", name, err)
		}
		if err := e.auth.SetTokenLifetime(secs); err != nil {
			e.log.Error().Err(err).Uint64("seconds", secs).Msg("failed to set token lifetime")
			return failure(op, err)
		}
		return nil

	case OptionModelID:
		id, ok := value.(string)
		if !ok {
			return invalidArg(op, "%s must be a string", name)
		}
		if e.modelID != "" {
			e.log.Error().Str("model_id", e.modelID).Msg("model id already set")
			return failure(op, fmt.Errorf("%s is already set", name))
		}
		e.modelID = id
		return nil
	}

	if err := e.transport.SetOption(name, value); err != nil {
		e.log.Error().Err(err).Str("option", name).Msg("transport rejected option")
		return transportFailure(op, err)
	}
	if e.uploader != nil {
		_ = e.uploader.SetOption(name, value)
	}
	return nil
}

// MessageTimeout returns the timeout applied to newly sent telemetry.
func (e *Engine) MessageTimeout() time.Duration { return e.messageTimeout }

// ModelID returns the model id announced to the hub.
func (e *Engine) ModelID() string { return e.modelID }

// ProductInfo returns the user agent string the transport announces.
func (e *Engine) ProductInfo() string { return e.productInfo }

const maxTimeoutMillis = uint64(math.MaxInt64 / int64(time.Millisecond))

func durationValue(v any) (time.Duration, error) {
	if d, ok := v.(time.Duration); ok {
		if d < 0 {
			return 0, fmt.Errorf("negative duration %s", d)
		}
		return d, nil
	}
	ms, err := uintValue(v)
	if err != nil {
		return 0, err
	}
	if ms > maxTimeoutMillis {
		return 0, fmt.Errorf("%d ms overflows a duration", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func uintValue(v any) (uint64, error) {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d", n)
		}
		return uint64(n), nil
	case int32:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d", n)
		}
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
