package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client is the socket client used by the companion command-line front-end.
type Client struct {
	conn *net.UDPConn
}

// Dial connects to the daemon's socket on 127.0.0.1:port.
func Dial(port int) (*Client, error) {
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the daemon socket: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the socket.
func (c *Client) Close() error { return c.conn.Close() }

// Call sends a request and gathers the chunked response: non-empty datagrams
// are concatenated until the zero-length terminator arrives.
func (c *Client) Call(request Request, timeout time.Duration) (*Response, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize the request: %w", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to send the request: %w", err)
	}

	if timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	}

	var payload []byte
	buf := make([]byte, MaxChunkSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to receive the response: %w", err)
		}
		if n == 0 {
			break
		}
		payload = append(payload, buf[:n]...)
	}

	var response Response
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("failed to deserialize the response: %w", err)
	}
	return &response, nil
}
