// Package fastudp receives low-latency brightness frames over UDP. Each
// datagram carries either the framed "LED" packet or bare channel bytes;
// either way it decodes to one frame handed straight to the mode arbiter.
package fastudp

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/sweeney/triac-dimmer/internal/dimmer"
	"github.com/sweeney/triac-dimmer/internal/logger"
)

// DefaultPort is the fast-control listening port.
const DefaultPort = 5000

// maxPacketSize bounds a single datagram read.
const maxPacketSize = 512

// Framed packet layout: "LED", version byte, channel count, then count
// raw brightness bytes.
const (
	headerLen     = 5
	headerVersion = 0x01
)

var headerMagic = [3]byte{'L', 'E', 'D'}

// ParsePacket decodes one datagram into a frame. Packets matching the
// framed layout are decoded by their declared channel count; anything else
// falls back to treating the first bytes as raw channel values. Only an
// empty packet yields no frame.
func ParsePacket(data []byte) (dimmer.Frame, bool) {
	if len(data) == 0 {
		return dimmer.Frame{}, false
	}
	if frame, ok := parseFramed(data); ok {
		return frame, true
	}
	// Raw fallback: first K bytes are channel values.
	return dimmer.FrameFromSlice(data), true
}

func parseFramed(data []byte) (dimmer.Frame, bool) {
	if len(data) < headerLen+1 {
		return dimmer.Frame{}, false
	}
	if data[0] != headerMagic[0] || data[1] != headerMagic[1] || data[2] != headerMagic[2] {
		return dimmer.Frame{}, false
	}
	if data[3] != headerVersion {
		return dimmer.Frame{}, false
	}

	count := int(data[4])
	if count == 0 {
		return dimmer.Frame{}, false
	}
	// The packet must carry everything it claims to.
	if len(data) < headerLen+count {
		return dimmer.Frame{}, false
	}

	return dimmer.FrameFromSlice(data[headerLen : headerLen+count]), true
}

// Listener receives datagrams on its own goroutine and applies each
// decoded frame.
type Listener struct {
	conn    *net.UDPConn
	apply   func(dimmer.Frame)
	log     *logger.Logger
	packets atomic.Uint64
}

// Listen binds the UDP port and starts the receive loop.
func Listen(port int, apply func(dimmer.Frame), log *logger.Logger) (*Listener, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("listen udp :%d: %w", port, err)
	}

	l := &Listener{conn: conn, apply: apply, log: log}
	go l.readLoop()
	log.Infow("udp fast control listening", "port", port)
	return l, nil
}

func (l *Listener) readLoop() {
	buf := make([]byte, maxPacketSize)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.log.Debugw("udp read error", "err", err)
			continue
		}

		frame, ok := ParsePacket(buf[:n])
		if !ok {
			continue
		}
		l.packets.Add(1)
		l.apply(frame)
	}
}

// PacketCount returns how many frames have been received.
func (l *Listener) PacketCount() uint64 {
	return l.packets.Load()
}

// Close stops the receive loop and releases the socket.
func (l *Listener) Close() error {
	return l.conn.Close()
}
