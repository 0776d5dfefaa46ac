// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxRequestLineBytes is the longest request line, terminator included,
// which will be accepted.
const MaxRequestLineBytes = 65536

// RequestLine is the first line of a request.
type RequestLine struct {
	Method   string
	Target   string
	Protocol string

	// Raw is the decoded line with its trailing CR/LF removed.
	Raw string
}

// RequestLineTooLongError is returned when more than [MaxRequestLineBytes]
// are read without reaching the end of the line.
type RequestLineTooLongError struct {
	Len int
}

// Error implements the error interface.
func (e RequestLineTooLongError) Error() string {
	return fmt.Sprintf("request line exceeds %d bytes", MaxRequestLineBytes)
}

// MalformedRequestLineError is returned when a request line does not
// have a method, target and protocol.
type MalformedRequestLineError struct {
	Line string
}

// Error implements the error interface.
func (e MalformedRequestLineError) Error() string {
	return fmt.Sprintf("malformed request line: %q", e.Line)
}

// ReadRequestLine reads and validates a single request line from r.
// Nothing beyond the line is consumed from r.
//
// A line which ends at EOF without a terminator is still parsed.
func ReadRequestLine(r *bufio.Reader) (RequestLine, error) {
	b, err := readLine(r, MaxRequestLineBytes+1)
	if err != nil {
		return RequestLine{}, err
	}
	if len(b) > MaxRequestLineBytes {
		return RequestLine{}, RequestLineTooLongError{Len: len(b)}
	}

	raw := strings.TrimRight(decodeLatin1(b), "\r\n")
	fields := strings.FieldsFunc(raw, isSpace)
	if len(fields) < 3 {
		return RequestLine{}, MalformedRequestLineError{Line: raw}
	}

	rl := RequestLine{
		Method:   fields[0],
		Target:   fields[1],
		Protocol: fields[2],
		Raw:      raw,
	}
	return rl, nil
}

// readLine reads until '\n' or until limit bytes have been read,
// whichever comes first.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	var line []byte
	for len(line) < limit {
		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return line, nil
		}
		if err != nil {
			return nil, err
		}

		line = append(line, b)
		if b == '\n' {
			return line, nil
		}

		// drain whatever is already buffered without going back to the conn
		n := min(r.Buffered(), limit-len(line))
		if n == 0 {
			continue
		}
		peek, _ := r.Peek(n)
		i := bytes.IndexByte(peek, '\n')
		if i >= 0 {
			n = i + 1
		}
		line = append(line, peek[:n]...)
		r.Discard(n)
		if i >= 0 {
			return line, nil
		}
	}
	return line, nil
}

// decodeLatin1 maps every byte to the rune with the same value.
func decodeLatin1(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// isSpace reports whitespace the same way for every decoded byte,
// including the ASCII separator controls and NBSP.
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r', 0x1c, 0x1d, 0x1e, 0x1f, 0x85, 0xa0:
		return true
	}
	return false
}
