// Package rcon implements a Source RCON client tuned for the HumanitZ
// dedicated server, which deviates from the protocol in two ways: every
// response carries request id 0, and empty commands are never answered, so
// the usual end-marker trick for detecting the end of a multi-packet
// response cannot be used. Responses are instead collected under a short
// read timeout.
package rcon

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// Source RCON packet types (Valve Developer Wiki).
const (
	typeAuth          int32 = 3
	typeAuthResponse  int32 = 2
	typeExecCommand   int32 = 2
	typeResponseValue int32 = 0
)

// authFailedID is the sentinel response id signalling a rejected password.
const authFailedID int32 = -1

// maxPacketSize bounds a single response packet body. The chat buffer dump is
// the largest known response and stays well under this.
const maxPacketSize = 1 << 20

// ErrNotConnected is returned when an exchange is attempted without a socket.
var ErrNotConnected = errors.New("rcon: not connected")

// Packet is one decoded wire packet, kept for diagnostics.
type Packet struct {
	Body string
	Size int32
	ID   int32
	Type int32
}

// Client is a single-connection RCON transport. It is not safe for
// concurrent use; the connection manager serializes access.
type Client struct {
	conn    net.Conn
	host    string
	port    int
	timeout time.Duration
	reqID   int32
}

// NewClient creates an unconnected transport for the given endpoint.
// The timeout applies to dialing and to the authentication exchange.
func NewClient(host string, port int, timeout time.Duration) *Client {
	return &Client{host: host, port: port, timeout: timeout}
}

// Connect establishes the TCP connection. It returns false on failure and
// leaves retry policy to the caller.
func (c *Client) Connect() bool {
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))

	conn, err := net.DialTimeout("tcp", addr, c.timeout)
	if err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("RCON connect failed")
		c.conn = nil
		return false
	}

	c.conn = conn
	log.Info().Str("addr", addr).Msg("RCON TCP connection established")
	return true
}

// Connected reports whether the cached socket still has a peer. The probe is
// a getpeername call on the raw descriptor; any failure means the socket must
// be recreated before reuse.
func (c *Client) Connected() bool {
	if c.conn == nil {
		return false
	}

	tc, ok := c.conn.(*net.TCPConn)
	if !ok {
		return false
	}

	raw, err := tc.SyscallConn()
	if err != nil {
		return false
	}

	var probeErr error
	if err := raw.Control(func(fd uintptr) {
		_, probeErr = unix.Getpeername(int(fd))
	}); err != nil {
		return false
	}

	return probeErr == nil
}

// Authenticate performs the login exchange. The server answers with an
// interim value-type packet before the auth result and stamps every response
// with id 0, so up to three packets are read and the first auth-result packet
// with a non-sentinel id is accepted as success.
func (c *Client) Authenticate(password string) bool {
	if c.conn == nil {
		return false
	}

	reqID := c.nextID()
	if err := c.writePacket(reqID, typeAuth, password); err != nil {
		log.Error().Err(err).Msg("RCON auth send failed")
		return false
	}

	for i := 0; i < 3; i++ {
		p, err := c.readPacket(c.timeout)
		if err != nil {
			if isTimeout(err) {
				log.Debug().Int("read", i+1).Msg("RCON auth read timed out")
				break
			}
			log.Error().Err(err).Msg("RCON auth read failed")
			return false
		}

		log.Debug().
			Int32("id", p.ID).
			Int32("type", p.Type).
			Int("read", i+1).
			Msg("RCON auth response packet")

		if p.Type != typeAuthResponse {
			continue
		}

		if p.ID == authFailedID {
			log.Warn().Msg("RCON authentication rejected")
			return false
		}

		log.Info().Int32("id", p.ID).Msg("RCON authenticated")
		return true
	}

	log.Error().Msg("RCON authentication failed: no auth response received")
	return false
}

// ExecuteSimple sends one command and collects every response packet that
// arrives before readTimeout elapses, concatenating the bodies in arrival
// order. A read timeout is the normal end of a response; any other I/O error
// invalidates the connection for the caller to recreate.
func (c *Client) ExecuteSimple(command string, readTimeout time.Duration) (string, []Packet, error) {
	if c.conn == nil {
		return "", nil, ErrNotConnected
	}

	cmdID := c.nextID()
	if err := c.writePacket(cmdID, typeExecCommand, command); err != nil {
		return "", nil, fmt.Errorf("send command: %w", err)
	}

	var body strings.Builder
	var packets []Packet

	for {
		p, err := c.readPacket(readTimeout)
		if err != nil {
			if isTimeout(err) {
				break
			}
			return body.String(), packets, fmt.Errorf("read response: %w", err)
		}

		packets = append(packets, p)
		body.WriteString(p.Body)
	}

	log.Debug().
		Str("command", command).
		Int("packets", len(packets)).
		Int("length", body.Len()).
		Msg("RCON command completed")

	return body.String(), packets, nil
}

// Close shuts down the connection if one exists.
func (c *Client) Close() {
	if c.conn == nil {
		return
	}

	if err := c.conn.Close(); err != nil {
		log.Debug().Err(err).Msg("RCON close error")
	}
	c.conn = nil
}

func (c *Client) nextID() int32 {
	c.reqID++
	return c.reqID
}

// writePacket frames and sends one packet:
// [size:i32le][id:i32le][type:i32le][body][0x00][0x00].
func (c *Client) writePacket(id, packetType int32, body string) error {
	payload := []byte(body)
	size := int32(4 + 4 + len(payload) + 2)

	buf := make([]byte, 0, 4+size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(size))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(packetType))
	buf = append(buf, payload...)
	buf = append(buf, 0x00, 0x00)

	_, err := c.conn.Write(buf)
	return err
}

// readPacket reads one packet under the given deadline.
func (c *Client) readPacket(timeout time.Duration) (Packet, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return Packet{}, err
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return Packet{}, err
	}

	size := int32(binary.LittleEndian.Uint32(header))
	if size < 8 || size > maxPacketSize {
		return Packet{}, fmt.Errorf("invalid packet size %d", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(c.conn, data); err != nil {
		return Packet{}, err
	}

	p := Packet{
		Size: size,
		ID:   int32(binary.LittleEndian.Uint32(data[0:4])),
		Type: int32(binary.LittleEndian.Uint32(data[4:8])),
		Body: string(trimNulls(data[8:])),
	}

	return p, nil
}

func trimNulls(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0x00 {
		b = b[:len(b)-1]
	}
	return b
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
