// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelconfig initializes the trace.TracerProvider used to trace requests.
package otelconfig

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Config selects and configures an [Initializer].
type Config struct {
	// Exporter is either "none" or "stdout". Empty means "none".
	Exporter    string  `config:"exporter"`
	ServiceName string  `config:"service_name"`
	SampleRatio float64 `config:"sample_ratio"`
}

// UnknownExporterError is returned when [Config.Exporter] names an
// exporter which is not supported.
type UnknownExporterError struct {
	Exporter string
}

// Error implements the error interface.
func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown trace exporter: %s", e.Exporter)
}

// Initializer returns the [Initializer] described by cfg. Spans exported
// to stdout are written to out.
func (cfg Config) Initializer(out io.Writer) (Initializer, error) {
	switch cfg.Exporter {
	case "", "none":
		return Noop, nil
	case "stdout":
		opts := []LocalOption{
			ServiceName(cfg.ServiceName),
			Writer(out),
		}
		if cfg.SampleRatio > 0 {
			opts = append(opts, SampleRatio(cfg.SampleRatio))
		}
		return Local(opts...), nil
	default:
		return nil, UnknownExporterError{Exporter: cfg.Exporter}
	}
}

// Common
type Common struct {
	ServiceName string
}

// CommonOption
type CommonOption interface {
	LocalOption
}

type commonOptionFunc func(*Common)

func (f commonOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(&cfg.Common)
}

// ServiceName
func ServiceName(name string) CommonOption {
	return commonOptionFunc(func(c *Common) {
		c.ServiceName = name
	})
}

// Initializer
type Initializer interface {
	Init() (trace.TracerProvider, error)
}

// Noop leaves the global trace.TracerProvider in place.
var Noop = noopConfiger{}

type noopConfiger struct{}

func (noopConfiger) Init() (trace.TracerProvider, error) {
	return otel.GetTracerProvider(), nil
}

// LocalConfig
type LocalConfig struct {
	Common

	Out         io.Writer
	SampleRatio float64
}

// LocalOption
type LocalOption interface {
	ApplyLocal(*LocalConfig)
}

type localOptionFunc func(*LocalConfig)

func (f localOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(cfg)
}

// Writer sets where spans are exported to.
//
// Default is os.Stdout.
func Writer(w io.Writer) LocalOption {
	return localOptionFunc(func(cfg *LocalConfig) {
		cfg.Out = w
	})
}

// SampleRatio sets the fraction of root spans which are sampled.
//
// Default is 1, every span.
func SampleRatio(ratio float64) LocalOption {
	return localOptionFunc(func(cfg *LocalConfig) {
		cfg.SampleRatio = ratio
	})
}

// Local exports spans, pretty printed, to a local writer.
func Local(opts ...LocalOption) Initializer {
	cfg := LocalConfig{
		Out:         os.Stdout,
		SampleRatio: 1,
	}
	for _, opt := range opts {
		opt.ApplyLocal(&cfg)
	}
	return cfg
}

// Init implements Initializer interface.
func (cfg LocalConfig) Init() (trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.Common.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	return tp, nil
}
