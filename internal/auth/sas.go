package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"
)

// SignSAS renders a SharedAccessSignature for scope valid until expiry.
//
// The signed string is scope + "\n" + expiry. Scope is used as given; callers
// pass an already URL-encoded resource URI.
func SignSAS(key []byte, scope string, expiry uint64, keyName string) string {
	se := strconv.FormatUint(expiry, 10)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(scope))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(se))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	var b strings.Builder
	b.WriteString("SharedAccessSignature sr=")
	b.WriteString(scope)
	b.WriteString("&sig=")
	b.WriteString(url.QueryEscape(sig))
	b.WriteString("&se=")
	b.WriteString(se)
	if keyName != "" {
		b.WriteString("&skn=")
		b.WriteString(keyName)
	}
	return b.String()
}

// expiryFrom adds lifetime to now, saturating instead of wrapping.
func expiryFrom(now, lifetime uint64) uint64 {
	exp := now + lifetime
	if exp < now {
		return ^uint64(0)
	}
	return exp
}
