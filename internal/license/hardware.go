package license

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"runtime"
	"sort"
	"strings"
)

// HardwareID returns a stable fingerprint of this machine: SHA-256 over
// hostname, architecture, OS, and the hardware MAC addresses. Interfaces
// are sorted so the fingerprint does not depend on enumeration order.
func HardwareID() string {
	parts := []string{runtime.GOOS, runtime.GOARCH}

	if hostname, err := os.Hostname(); err == nil {
		parts = append(parts, hostname)
	}

	if ifaces, err := net.Interfaces(); err == nil {
		var macs []string
		for _, iface := range ifaces {
			// Loopback and virtual interfaces have no stable hardware address.
			if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
				continue
			}
			macs = append(macs, iface.HardwareAddr.String())
		}
		sort.Strings(macs)
		parts = append(parts, macs...)
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
