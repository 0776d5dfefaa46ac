// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package try

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(f func() error) (err error) {
	defer Recover(&err)
	return f()
}

func TestRecover(t *testing.T) {
	t.Run("will return a PanicError", func(t *testing.T) {
		t.Run("if the handler panics with a string", func(t *testing.T) {
			err := serve(func() error {
				panic("boom")
			})

			var perr PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "boom", perr.Value) {
				return
			}
			if !assert.Contains(t, perr.Error(), "boom") {
				return
			}
			if !assert.Contains(t, string(perr.Stack), "TestRecover") {
				return
			}
			if !assert.Nil(t, perr.Unwrap()) {
				return
			}
		})

		t.Run("if the handler panics with an error", func(t *testing.T) {
			panicErr := errors.New("write on closed connection")
			err := serve(func() error {
				panic(panicErr)
			})

			var perr PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.ErrorIs(t, err, panicErr) {
				return
			}
		})
	})

	t.Run("will keep the returned error", func(t *testing.T) {
		t.Run("if the handler set one before panicking", func(t *testing.T) {
			handlerErr := errors.New("malformed request line")
			f := func() (err error) {
				defer Recover(&err)
				err = handlerErr
				panic("boom")
			}

			err := f()
			if !assert.ErrorIs(t, err, handlerErr) {
				return
			}

			var perr PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
		})

		t.Run("if the handler does not panic", func(t *testing.T) {
			handlerErr := errors.New("malformed request line")
			err := serve(func() error {
				return handlerErr
			})
			if !assert.Equal(t, handlerErr, err) {
				return
			}
		})
	})
}

type body struct {
	closed   int
	closeErr error
}

func (b *body) Close() error {
	b.closed++
	return b.closeErr
}

func TestClose(t *testing.T) {
	closeErr := errors.New("close failed")
	writeErr := errors.New("broken pipe")

	testCases := []struct {
		Name     string
		Body     any
		Err      error
		Expected []error
		Closed   bool
	}{
		{
			Name:   "will close the body if it succeeds",
			Body:   &body{},
			Closed: true,
		},
		{
			Name:     "will return a CloseError if the body fails to close",
			Body:     &body{closeErr: closeErr},
			Expected: []error{closeErr},
			Closed:   true,
		},
		{
			Name:     "will join the CloseError with an existing error",
			Body:     &body{closeErr: closeErr},
			Err:      writeErr,
			Expected: []error{closeErr, writeErr},
			Closed:   true,
		},
		{
			Name:     "will keep the existing error if the body closes cleanly",
			Body:     &body{},
			Err:      writeErr,
			Expected: []error{writeErr},
			Closed:   true,
		},
		{
			Name:     "will ignore values which are not an io.Closer",
			Body:     []byte("hello"),
			Err:      writeErr,
			Expected: []error{writeErr},
		},
		{
			Name: "will ignore a nil value",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			err := testCase.Err
			Close(&err, testCase.Body)

			if len(testCase.Expected) == 0 {
				require.Nil(t, err)
			}
			for _, expected := range testCase.Expected {
				require.ErrorIs(t, err, expected)
			}
			if expected := testCase.Expected; len(expected) > 0 && expected[0] == closeErr {
				var cerr CloseError
				require.ErrorAs(t, err, &cerr)
				require.Contains(t, cerr.Error(), "close failed")
			}

			if b, ok := testCase.Body.(*body); ok {
				require.Equal(t, testCase.Closed, b.closed == 1)
			}
		})
	}
}
