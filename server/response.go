// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/z5labs/gateway"
	"github.com/z5labs/gateway/internal/try"
	"github.com/z5labs/gateway/pkg/slogfield"
)

type responseState int

const (
	stateIdle responseState = iota
	stateHeadersRegistered
	stateHeadersSent
)

func (s responseState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateHeadersRegistered:
		return "headers_registered"
	case stateHeadersSent:
		return "headers_sent"
	default:
		return "unknown"
	}
}

// response drives the two phase response protocol for one request
// at a time. Its zero value, with out and log set, is Idle.
type response struct {
	log *slog.Logger
	out io.Writer

	state   responseState
	status  string
	headers []gateway.Header
	body    gateway.Body
}

// startResponse returns the callable handed to the application.
//
// An errInfo is only logged. Calling it again overwrites the pending
// status and headers but never causes headers to be emitted twice.
func (r *response) startResponse(ctx context.Context) gateway.StartResponse {
	return func(status string, headers []gateway.Header, errInfo error) gateway.WriteFunc {
		if errInfo != nil {
			r.log.WarnContext(
				ctx,
				"application reported an error when starting the response",
				slogfield.String("status", status),
				slogfield.Error(errInfo),
			)
		}

		r.status = status
		r.headers = slices.Clone(headers)
		if r.state == stateIdle {
			r.state = stateHeadersRegistered
		}
		return r.write
	}
}

func (r *response) write(chunk []byte) error {
	switch r.state {
	case stateIdle:
		return gateway.ErrWriteBeforeStartResponse
	case stateHeadersRegistered:
		r.state = stateHeadersSent
		err := r.writeHeaders()
		if err != nil {
			return err
		}
	}

	_, err := r.out.Write(chunk)
	return err
}

func (r *response) writeHeaders() error {
	var buf bytes.Buffer
	buf.WriteString("HTTP/1.0 ")
	buf.WriteString(r.status)
	buf.WriteString("\r\n")
	for _, h := range r.headers {
		buf.WriteString(h.Name)
		buf.WriteString(": ")
		buf.WriteString(h.Value)
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")

	_, err := r.out.Write(buf.Bytes())
	return err
}

// finish writes every chunk of the body, in order, and always closes
// the response afterwards. The first failure stops iteration. No error
// status is written in its place.
//
// A registered response whose body produced no chunks still has its
// headers written.
func (r *response) finish(ctx context.Context) error {
	defer r.close(ctx)

	err := r.drain()
	if err != nil {
		return err
	}
	if r.state == stateHeadersRegistered {
		return r.write(nil)
	}
	return nil
}

func (r *response) drain() (err error) {
	defer try.Recover(&err)

	if r.body == nil {
		return nil
	}
	for {
		chunk, err := r.body.Next()
		if len(chunk) > 0 || err == nil {
			werr := r.write(chunk)
			if werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// close releases the body, if it has a release hook, and resets
// the response back to Idle.
func (r *response) close(ctx context.Context) {
	defer r.reset()

	err := r.release()
	if err != nil {
		r.log.WarnContext(ctx, "failed to release response body", slogfield.Error(err))
	}
}

func (r *response) release() (err error) {
	defer try.Recover(&err)
	defer try.Close(&err, r.body)
	return nil
}

func (r *response) reset() {
	r.state = stateIdle
	r.status = ""
	r.headers = nil
	r.body = nil
}
