// Package ports finds and validates TCP ports for hosted servers.
package ports

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"os"
	"strconv"
	"strings"
)

// Range used for automatically allocated ports.
const (
	MinPort = 7000
	MaxPort = 10000
)

// Bounds of a valid TCP port number.
const (
	MinTCPPort = 0
	MaxTCPPort = 65535
)

// maxSamples is how many random candidates FindOpenPort tries before
// falling back to a linear scan.
const maxSamples = 100

// ErrNoOpenPort is returned when no port in [MinPort, MaxPort] is free.
var ErrNoOpenPort = errors.New("no open port in range")

// procNetFiles lists the kernel tables of TCP sockets on Linux.
var procNetFiles = []string{"/proc/net/tcp", "/proc/net/tcp6"}

// tcpListenState is the kernel's hex code for a socket in LISTEN.
const tcpListenState = "0A"

// FindOpenPort returns a port in [MinPort, MaxPort] that nothing is bound to.
//
// The ports currently listening are collected first, then random candidates
// are sampled from the range. When every sample collides the range is scanned
// linearly. The port is not reserved: another process can take it before the
// caller binds.
func FindOpenPort() (int, error) {
	inUse := usedPorts()

	span := MaxPort - MinPort + 1
	for i := 0; i < maxSamples; i++ {
		port := MinPort + rand.IntN(span)
		if !inUse(port) {
			return port, nil
		}
	}

	for port := MinPort; port <= MaxPort; port++ {
		if !inUse(port) {
			return port, nil
		}
	}

	return 0, ErrNoOpenPort
}

// IsPortInUse reports whether port is unusable: outside the TCP port range, or
// already bound.
func IsPortInUse(port int) bool {
	if port < MinTCPPort || port > MaxTCPPort {
		return true
	}
	return usedPorts()(port)
}

// IsAvailable checks if a port is available for binding.
// Returns true if the port is available, false otherwise.
func IsAvailable(port int) bool {
	return Check(port) == nil
}

// Check binds and releases port, returning the bind error if it fails.
func Check(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	_ = ln.Close()
	return nil
}

// usedPorts returns a predicate over the ports currently in use. A port is in
// use when the kernel lists a listener on it or a trial bind fails.
func usedPorts() func(int) bool {
	listening, err := ListeningPorts()
	if err != nil {
		return func(port int) bool { return !IsAvailable(port) }
	}
	return func(port int) bool {
		return listening[port] || !IsAvailable(port)
	}
}

// ListeningPorts returns the set of local TCP ports with a listening socket,
// read from the kernel socket tables. It fails on platforms without them.
func ListeningPorts() (map[int]bool, error) {
	ports := make(map[int]bool)
	read := 0
	for _, path := range procNetFiles {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		err = parseProcNetTCP(f, ports)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		read++
	}
	if read == 0 {
		return nil, errors.New("no socket table available")
	}
	return ports, nil
}

// parseProcNetTCP adds the local port of every LISTEN row in a /proc/net/tcp
// style table to ports. Rows look like:
//
//	sl  local_address rem_address   st ...
//	 0: 0100007F:1F90 00000000:0000 0A ...
func parseProcNetTCP(r io.Reader, ports map[int]bool) error {
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[3] != tcpListenState {
			continue
		}
		idx := strings.LastIndexByte(fields[1], ':')
		if idx < 0 {
			continue
		}
		port, err := strconv.ParseUint(fields[1][idx+1:], 16, 16)
		if err != nil {
			continue
		}
		ports[int(port)] = true
	}
	return scanner.Err()
}
