package journal

import "github.com/roach88/hubsession/internal/canonical"

// Domain prefixes for payload digests.
const (
	DomainJSONPayload = "hubsession/payload/json/v1"
	DomainRawPayload  = "hubsession/payload/raw/v1"
)

// PayloadDigest returns the hex SHA-256 digest of payload.
//
// A payload holding exactly one JSON value is hashed in canonical form, so
// documents that differ only in key order, whitespace, or Unicode
// normalization share a digest. Anything else is hashed as raw bytes under
// a different domain. An empty payload has an empty digest.
func PayloadDigest(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	if c, err := canonical.Transform(payload); err == nil {
		return canonical.HashWithDomain(DomainJSONPayload, c)
	}
	return canonical.HashWithDomain(DomainRawPayload, payload)
}
