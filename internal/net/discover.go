package net

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_liveboard._tcp"

// Advertise announces a hosted board relay on the local network so
// other clients can join without typing an address. Close the returned
// server on shutdown.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("advertise: hostname: %w", err)
	}
	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"LiveBoard"})
	if err != nil {
		return nil, fmt.Errorf("advertise: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("advertise: %w", err)
	}
	return server, nil
}

// Discover browses the local network for a board relay and returns the
// first "host:port" found within the timeout.
func Discover(timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)
	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			select {
			case found <- fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port):
			default:
			}
		}
	}()
	if err := mdns.Lookup(serviceType, entries); err != nil {
		return "", fmt.Errorf("discover: %w", err)
	}
	select {
	case addr := <-found:
		return addr, nil
	case <-time.After(timeout):
		return "", fmt.Errorf("discover: no relay found within %s", timeout)
	}
}
