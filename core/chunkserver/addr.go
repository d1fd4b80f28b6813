package chunkserver

import (
	"errors"
	"net"
)

var ErrNoIPv4 = errors.New("no non-loopback IPv4 address")

// LocalIPv4 returns the first non-loopback IPv4 address of this machine,
// which is the address peers on the LAN will see.
func LocalIPv4() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if ip := ipNet.IP.To4(); ip != nil && !ip.IsLoopback() {
				return ip.String(), nil
			}
		}
	}

	return "", ErrNoIPv4
}
