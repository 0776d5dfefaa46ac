// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gateway

import (
	"io"
	"iter"
)

// Body produces the chunks of a response body. Next returns [io.EOF]
// once the body is exhausted.
//
// A Body may also implement [io.Closer]. If it does, Close is always
// called once the connection it was serving is torn down, regardless
// of whether the body was fully consumed.
type Body interface {
	Next() ([]byte, error)
}

// ChunkBody is a [Body] backed by an in-memory list of chunks.
type ChunkBody struct {
	chunks [][]byte
	i      int
}

// Chunks returns a [Body] which yields each chunk in order.
func Chunks(chunks ...[]byte) *ChunkBody {
	return &ChunkBody{chunks: chunks}
}

// Strings returns a [Body] which yields each string, as bytes, in order.
func Strings(ss ...string) *ChunkBody {
	chunks := make([][]byte, len(ss))
	for i, s := range ss {
		chunks[i] = []byte(s)
	}
	return Chunks(chunks...)
}

// Empty returns a [Body] without any chunks.
func Empty() *ChunkBody {
	return &ChunkBody{}
}

// Next implements the [Body] interface.
func (b *ChunkBody) Next() ([]byte, error) {
	if b.i >= len(b.chunks) {
		return nil, io.EOF
	}
	chunk := b.chunks[b.i]
	b.i++
	return chunk, nil
}

// SeqBody is a [Body] which lazily pulls its chunks from an [iter.Seq2].
type SeqBody struct {
	next func() ([]byte, error, bool)
	stop func()
	done bool
}

// Seq returns a [Body] which pulls chunks from seq on demand. Iteration
// ends at the first non-nil error. Closing the returned body stops seq,
// even if it has not been exhausted.
func Seq(seq iter.Seq2[[]byte, error]) *SeqBody {
	next, stop := iter.Pull2(seq)
	return &SeqBody{
		next: next,
		stop: stop,
	}
}

// Next implements the [Body] interface.
func (b *SeqBody) Next() ([]byte, error) {
	if b.done {
		return nil, io.EOF
	}
	chunk, err, ok := b.next()
	if !ok {
		b.done = true
		return nil, io.EOF
	}
	if err != nil {
		b.done = true
		return nil, err
	}
	return chunk, nil
}

// Close implements the [io.Closer] interface.
func (b *SeqBody) Close() error {
	b.done = true
	b.stop()
	return nil
}
