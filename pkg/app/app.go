// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app provides wrappers for common [gateway.Runtime] patterns.
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/z5labs/gateway"
	"github.com/z5labs/gateway/internal/try"
	"github.com/z5labs/gateway/pkg/otelconfig"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Recover will wrap the given [gateway.Runtime] with panic recovery.
// A recovered panic is returned as a [try.PanicError].
func Recover(rt gateway.Runtime) gateway.Runtime {
	return gateway.RuntimeFunc(func(ctx context.Context) (err error) {
		defer try.Recover(&err)

		return rt.Run(ctx)
	})
}

// WithSignalNotifications wraps a given [gateway.Runtime] in an implementation
// that cancels the [context.Context] that's passed to rt.Run if an [os.Signal]
// is received by the running process.
func WithSignalNotifications(rt gateway.Runtime, signals ...os.Signal) gateway.Runtime {
	return gateway.RuntimeFunc(func(ctx context.Context) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return rt.Run(sigCtx)
	})
}

// LifecycleHook represents functionality that needs to be performed
// at a specific "time" relative to the execution of [gateway.Runtime.Run].
type LifecycleHook interface {
	Run(context.Context) error
}

// LifecycleHookFunc is a convenient helper type for implementing a [LifecycleHook]
// from just a regular func.
type LifecycleHookFunc func(context.Context) error

// Run implements the [LifecycleHook] interface.
func (f LifecycleHookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Lifecycle
type Lifecycle struct {
	// PreRun is executed before the underlying [gateway.Runtime].
	// If it fails the runtime is never run.
	PreRun LifecycleHook

	// PostRun is always executed regardless if the underlying [gateway.Runtime]
	// returns an error or panics.
	PostRun LifecycleHook
}

// WithLifecycleHooks wraps a given [gateway.Runtime] in an implementation
// that runs [LifecycleHook]s around the execution of rt.Run.
func WithLifecycleHooks(rt gateway.Runtime, lifecycle Lifecycle) gateway.Runtime {
	return gateway.RuntimeFunc(func(ctx context.Context) (err error) {
		if lifecycle.PreRun != nil {
			err = lifecycle.PreRun.Run(ctx)
			if err != nil {
				return err
			}
		}

		defer runPostRunHook(ctx, lifecycle.PostRun, &err)

		return rt.Run(ctx)
	})
}

func runPostRunHook(ctx context.Context, hook LifecycleHook, err *error) {
	if hook == nil {
		return
	}

	// run even if ctx was cancelled, e.g. to flush spans after a signal
	hookErr := hook.Run(context.WithoutCancel(ctx))

	// errors.Join will not return an error if both
	// *err and hookErr are nil.
	*err = errors.Join(*err, hookErr)
}

// WithOTel installs the trace.TracerProvider built by initer as the
// global provider before rt runs and shuts it down afterwards, if it
// supports being shut down.
func WithOTel(rt gateway.Runtime, initer otelconfig.Initializer) gateway.Runtime {
	return WithLifecycleHooks(rt, Lifecycle{
		PreRun: LifecycleHookFunc(func(ctx context.Context) error {
			tp, err := initer.Init()
			if err != nil {
				return err
			}
			if tp != otel.GetTracerProvider() {
				otel.SetTracerProvider(tp)
			}
			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
			return nil
		}),
		PostRun: LifecycleHookFunc(func(ctx context.Context) error {
			tp := otel.GetTracerProvider()
			stp, ok := tp.(interface {
				Shutdown(context.Context) error
			})
			if !ok {
				return nil
			}
			return stp.Shutdown(ctx)
		}),
	})
}
