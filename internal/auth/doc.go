// Package auth implements the credential manager of a hub session.
//
// A Manager owns the device identity (device id plus optional module id) and
// exactly one authoritative secret: a base64 device key, a pre-scoped SAS
// token, an X.509 marker, or an HSM-backed DeviceAuth. It produces SAS
// tokens on demand and tracks the lifetime applied to newly issued tokens.
//
// The credential type is derived from which secret is present. Forcing X.509
// on and off again re-derives the type from the remaining secrets; nothing is
// erased by the toggle.
//
// SASToken is the only place wall-clock time enters the credential
// subsystem. The clock is injectable through WithClock so token expiry can
// be asserted exactly in tests.
package auth
