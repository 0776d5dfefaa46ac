// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gateway

import (
	"context"
	"fmt"

	"github.com/z5labs/gateway/config"
)

// Runtime represents a long running process, e.g. a server
// accepting connections until its context is cancelled.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is a functional implementation of the [Runtime] interface.
type RuntimeFunc func(context.Context) error

// Run implements the [Runtime] interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// RuntimeBuilder represents anything which can initialize a Runtime
// from a config value.
type RuntimeBuilder[T any] interface {
	Build(ctx context.Context, cfg T) (Runtime, error)
}

// RuntimeBuilderFunc is a functional implementation of
// the RuntimeBuilder interface.
type RuntimeBuilderFunc[T any] func(context.Context, T) (Runtime, error)

// Build implements the RuntimeBuilder interface.
func (f RuntimeBuilderFunc[T]) Build(ctx context.Context, cfg T) (Runtime, error) {
	return f(ctx, cfg)
}

// Run is responsible for reading the provided config sources, unmarshalling
// them into the generic config type, using the config and builder to build
// the [Runtime] and, lastly, running it.
func Run[T any](ctx context.Context, builder RuntimeBuilder[T], srcs ...config.Source) error {
	m, err := config.Read(srcs...)
	if err != nil {
		return ConfigReadError{Cause: err}
	}

	var cfg T
	err = m.Unmarshal(&cfg)
	if err != nil {
		return ConfigUnmarshalError{Cause: err}
	}

	rt, err := builder.Build(ctx, cfg)
	if err != nil {
		return RuntimeBuildError{Cause: err}
	}

	err = rt.Run(ctx)
	if err != nil {
		return RuntimeRunError{Cause: err}
	}
	return nil
}

// ConfigReadError
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigUnmarshalError
type ConfigUnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigUnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal read config source(s) into custom type: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigUnmarshalError) Unwrap() error {
	return e.Cause
}

// RuntimeBuildError
type RuntimeBuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e RuntimeBuildError) Error() string {
	return fmt.Sprintf("failed to build runtime: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e RuntimeBuildError) Unwrap() error {
	return e.Cause
}

// RuntimeRunError
type RuntimeRunError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e RuntimeRunError) Error() string {
	return fmt.Sprintf("failed to run runtime: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e RuntimeRunError) Unwrap() error {
	return e.Cause
}
