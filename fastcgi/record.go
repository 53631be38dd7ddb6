// Copyright 2024 The Brain B2B Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fastcgi frames FastCGI 1.0 records on a single connection.
//
// Only the record types a responder needs are handled: BeginRequest, Params,
// Stdin and AbortRequest inbound, Stdout and EndRequest outbound. The HTTP
// bytes produced by the price pipeline pass through Stdout untouched.
package fastcgi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Record types of FastCGI 1.0.
const (
	TypeBeginRequest uint8 = 1
	TypeAbortRequest uint8 = 2
	TypeEndRequest   uint8 = 3
	TypeParams       uint8 = 4
	TypeStdin        uint8 = 5
	TypeStdout       uint8 = 6
)

const (
	protocolVersion = 1
	headerLen       = 8
	maxContentLen   = 65535

	// MaxRequestLen bounds one framed record on the wire:
	// header + content + padding.
	MaxRequestLen = headerLen + maxContentLen + 255
)

var (
	// ErrStreamClosed reports an orderly close of the peer connection.
	ErrStreamClosed = errors.New("fastcgi: stream closed")
	// ErrProtocol reports a malformed record; the connection must be dropped.
	ErrProtocol = errors.New("fastcgi: protocol error")
)

// Header is the fixed 8-byte prefix of every record.
type Header struct {
	Version       uint8
	Type          uint8
	RequestID     uint16
	ContentLength uint16
	PaddingLength uint8
}

// Record is one decoded inbound record. Params is set for non-empty Params
// records, Content for Stdin and BeginRequest payloads. Empty marks the
// zero-length stream terminator.
type Record struct {
	Header  Header
	Params  map[string]string
	Content []byte
	Empty   bool
}

// Framer reads and writes records on one connection.
type Framer struct {
	rw  io.ReadWriter
	buf []byte
}

// NewFramer wraps an established connection.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{rw: rw, buf: make([]byte, 0, MaxRequestLen)}
}

// ReadRecord blocks until one full record arrives. It returns ErrStreamClosed
// when the peer closes between records and ErrProtocol on malformed input.
func (f *Framer) ReadRecord() (*Record, error) {
	head, err := f.fill(headerLen)
	if err != nil {
		return nil, err
	}
	h := Header{
		Version:       head[0],
		Type:          head[1],
		RequestID:     binary.BigEndian.Uint16(head[2:4]),
		ContentLength: binary.BigEndian.Uint16(head[4:6]),
		PaddingLength: head[6],
	}
	if h.Version != protocolVersion {
		return nil, fmt.Errorf("%w: version %d", ErrProtocol, h.Version)
	}
	total := headerLen + int(h.ContentLength) + int(h.PaddingLength)
	body, err := f.fill(total)
	if err != nil {
		if errors.Is(err, ErrStreamClosed) {
			return nil, fmt.Errorf("%w: truncated record", ErrProtocol)
		}
		return nil, err
	}
	content := body[headerLen : headerLen+int(h.ContentLength)]
	f.consume(total)

	rec := &Record{Header: h}
	switch h.Type {
	case TypeParams:
		if len(content) == 0 {
			rec.Empty = true
			return rec, nil
		}
		params, err := parsePairs(content)
		if err != nil {
			return nil, err
		}
		rec.Params = params
	case TypeStdin:
		if len(content) == 0 {
			rec.Empty = true
			return rec, nil
		}
		rec.Content = append([]byte(nil), content...)
	default:
		rec.Content = append([]byte(nil), content...)
	}
	return rec, nil
}

// fill grows the buffer until it holds at least n bytes, reading from the
// connection as needed. The bytes stay buffered until consume.
func (f *Framer) fill(n int) ([]byte, error) {
	if n > MaxRequestLen {
		return nil, fmt.Errorf("%w: record of %d bytes", ErrProtocol, n)
	}
	for len(f.buf) < n {
		chunk := make([]byte, MaxRequestLen-len(f.buf))
		read, err := f.rw.Read(chunk)
		if read > 0 {
			f.buf = append(f.buf, chunk[:read]...)
			continue
		}
		if err == io.EOF || err == nil {
			return nil, ErrStreamClosed
		}
		return nil, err
	}
	return f.buf[:n], nil
}

func (f *Framer) consume(n int) {
	f.buf = append(f.buf[:0], f.buf[n:]...)
}

// parsePairs decodes the FastCGI name-value pair stream with 1- or 4-byte
// lengths. Duplicate names take the last value.
func parsePairs(content []byte) (map[string]string, error) {
	params := make(map[string]string, 16)
	for len(content) > 0 {
		nameLen, rest, err := pairLen(content)
		if err != nil {
			return nil, err
		}
		valueLen, rest, err := pairLen(rest)
		if err != nil {
			return nil, err
		}
		if len(rest) < nameLen+valueLen {
			return nil, fmt.Errorf("%w: short name-value pair", ErrProtocol)
		}
		params[string(rest[:nameLen])] = string(rest[nameLen : nameLen+valueLen])
		content = rest[nameLen+valueLen:]
	}
	return params, nil
}

func pairLen(b []byte) (int, []byte, error) {
	if len(b) == 0 {
		return 0, nil, fmt.Errorf("%w: missing pair length", ErrProtocol)
	}
	if b[0]&0x80 == 0 {
		return int(b[0]), b[1:], nil
	}
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("%w: short pair length", ErrProtocol)
	}
	n := binary.BigEndian.Uint32(b[:4]) &^ 0x80000000
	return int(n), b[4:], nil
}

// WriteResponse streams body over Stdout records, terminates the stream and
// completes the request.
func (f *Framer) WriteResponse(h Header, body []byte) error {
	for len(body) > 0 {
		n := len(body)
		if n > maxContentLen {
			n = maxContentLen
		}
		if err := f.writeRecord(TypeStdout, h.RequestID, body[:n]); err != nil {
			return err
		}
		body = body[n:]
	}
	if err := f.writeRecord(TypeStdout, h.RequestID, nil); err != nil {
		return err
	}
	return f.writeEnd(h.RequestID, 0)
}

// WriteAbort acknowledges an AbortRequest record.
func (f *Framer) WriteAbort(h Header) error {
	if err := f.writeRecord(TypeStdout, h.RequestID, nil); err != nil {
		return err
	}
	return f.writeEnd(h.RequestID, 1)
}

func (f *Framer) writeEnd(requestID uint16, appStatus uint32) error {
	var body [8]byte
	binary.BigEndian.PutUint32(body[0:4], appStatus)
	return f.writeRecord(TypeEndRequest, requestID, body[:])
}

func (f *Framer) writeRecord(kind uint8, requestID uint16, content []byte) error {
	var head [headerLen]byte
	head[0] = protocolVersion
	head[1] = kind
	binary.BigEndian.PutUint16(head[2:4], requestID)
	binary.BigEndian.PutUint16(head[4:6], uint16(len(content)))
	if _, err := f.rw.Write(head[:]); err != nil {
		return err
	}
	if len(content) > 0 {
		if _, err := f.rw.Write(content); err != nil {
			return err
		}
	}
	return nil
}
