package engine

import (
	"fmt"
	"runtime"

	"github.com/roach88/hubsession/internal/transport"
)

// Version is the client version announced in the product info string.
const Version = "1.0.0"

const clientName = "hubsession"

// makeProductInfo renders "[custom ]hubsession/<version> (<platform>)".
func makeProductInfo(custom string, level transport.PlatformInfo) string {
	platform := runtime.GOOS + "; " + runtime.GOARCH
	if level == transport.PlatformInfoFull {
		platform = "go; " + runtime.Version() + "; " + platform
	}
	if custom == "" {
		return fmt.Sprintf("%s/%s (%s)", clientName, Version, platform)
	}
	return fmt.Sprintf("%s %s/%s (%s)", custom, clientName, Version, platform)
}
