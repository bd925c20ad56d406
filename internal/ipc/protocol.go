// Package ipc is the control socket of a running compositor. Requests
// and responses are JSON objects, one per line.
package ipc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"deedles.dev/kms/object"
)

// Commands.
const (
	CmdList = "list"
	CmdCall = "call"
	CmdGet  = "get"
	CmdSet  = "set"
)

// Request is one command sent to the compositor.
type Request struct {
	Cmd    string            `json:"cmd"`
	Handle string            `json:"handle,omitempty"`
	Name   string            `json:"name,omitempty"`
	Args   []json.RawMessage `json:"args,omitempty"`
	Value  json.RawMessage   `json:"value,omitempty"`
}

// Response is the compositor's answer to a Request. Error is set if
// the request could not be carried out at all.
type Response struct {
	Error    string    `json:"error,omitempty"`
	Ret      int       `json:"ret"`
	Value    any       `json:"value,omitempty"`
	Surfaces []Surface `json:"surfaces,omitempty"`
}

// Surface describes one shell surface.
type Surface struct {
	Handle  string `json:"handle"`
	X       int32  `json:"x"`
	Y       int32  `json:"y"`
	Width   int32  `json:"width"`
	Height  int32  `json:"height"`
	Visible bool   `json:"visible"`
	Z       int32  `json:"z"`
	Monitor string `json:"monitor,omitempty"`
}

// ParseValue converts a JSON scalar into a command value. Numbers must
// be integers.
func ParseValue(data json.RawMessage) (object.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	err := dec.Decode(&v)
	if err != nil {
		return object.Value{}, fmt.Errorf("parse value: %w", err)
	}

	switch v := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return object.Value{}, fmt.Errorf("%v is not an integer", v)
		}
		return object.IntValue(i), nil
	case bool:
		return object.BoolValue(v), nil
	case string:
		return object.StringValue(v), nil
	case nil:
		return object.Value{}, nil
	default:
		return object.Value{}, fmt.Errorf("unsupported value %s", data)
	}
}

// Arg encodes v as a request argument.
func Arg(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// ParseArg parses a command line argument as an integer, a bool, or,
// failing both, a string.
func ParseArg(s string) json.RawMessage {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Arg(i)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return Arg(b)
	}
	return Arg(s)
}
