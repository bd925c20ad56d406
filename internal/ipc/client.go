package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
)

// Client is a connection to a compositor's control socket.
type Client struct {
	conn net.Conn
	r    *bufio.Scanner
	enc  *json.Encoder
}

// Dial connects to the control socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect to %v: %w", path, err)
	}

	return &Client{
		conn: conn,
		r:    bufio.NewScanner(conn),
		enc:  json.NewEncoder(conn),
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends req and waits for the response. A response that carries an
// error is returned as is; only failures to communicate are returned
// as errors.
func (c *Client) Do(req Request) (Response, error) {
	err := c.enc.Encode(req)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}

	if !c.r.Scan() {
		err := c.r.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var rsp Response
	err = json.Unmarshal(c.r.Bytes(), &rsp)
	if err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return rsp, nil
}

// ErrResponse is returned by Check for responses that report failure.
var ErrResponse = errors.New("request failed")

// Check converts a failed response into an error.
func Check(rsp Response) error {
	if rsp.Error != "" {
		return fmt.Errorf("%w: %v", ErrResponse, rsp.Error)
	}
	if rsp.Ret < 0 {
		return fmt.Errorf("%w: returned %v", ErrResponse, rsp.Ret)
	}
	return nil
}
