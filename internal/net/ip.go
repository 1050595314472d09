package net

import (
	"log"
	stdnet "net"
)

// OutgoingIP finds the preferred local IP address for the host to
// share with joining clients.
func OutgoingIP() (string, error) {
	conn, err := stdnet.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// No internet; fall back to scanning local interfaces.
		return localIPFallback()
	}
	defer conn.Close()
	localAddr := conn.LocalAddr().(*stdnet.UDPAddr)
	return localAddr.IP.String(), nil
}

func localIPFallback() (string, error) {
	addrs, err := stdnet.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*stdnet.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}
	log.Println("[net] no suitable local IP found, share link may fail")
	return "127.0.0.1", nil
}
