// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding"
	"fmt"
	"reflect"
	"time"

	"github.com/z5labs/gateway/config/key"

	"github.com/go-viper/mapstructure/v2"
)

// Store represents a general key value structure.
type Store interface {
	Set(key.Keyer, any) error
}

// Source defines valid config sources as those who can
// serialize themselves into a key value like structure.
type Source interface {
	Apply(Store) error
}

// Manager holds the merged result of one or more Sources.
type Manager struct {
	store Map
}

// Read applies every Source, in order, to a fresh Store.
// Subsequent sources override previous sources.
func Read(srcs ...Source) (*Manager, error) {
	store := make(Map)
	for _, src := range srcs {
		err := src.Apply(store)
		if err != nil {
			return nil, err
		}
	}
	m := &Manager{
		store: store,
	}
	return m, nil
}

// Apply implements the Source interface.
func (m *Manager) Apply(store Store) error {
	return m.store.Apply(store)
}

// Unmarshal decodes the merged config values into v, matching keys
// against `config` struct tags. Strings decode into any
// encoding.TextUnmarshaler (e.g. slog.Level) and numbers or duration
// strings decode into time.Duration.
func (m *Manager) Unmarshal(v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "config",
		Result:     v,
		DecodeHook: decodeHooks{textUnmarshalerHook, durationHook}.apply,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(m.store))
}

// TypeCoercionError occurs when a config value could not be converted
// into the type of the struct field it was decoded into.
type TypeCoercionError struct {
	From  reflect.Type
	To    reflect.Type
	Cause error
}

// Error implements the error interface.
func (e TypeCoercionError) Error() string {
	return fmt.Sprintf("failed to coerce value from %s to %s: %s", e.From, e.To, e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e TypeCoercionError) Unwrap() error {
	return e.Cause
}

// decodeHook converts data, whose type is from, into a value of type to.
// ok is false when the hook does not handle the conversion.
type decodeHook func(from, to reflect.Type, data any) (v any, ok bool, err error)

type decodeHooks []decodeHook

// apply runs the first hook which handles the conversion. Values no
// hook handles are passed through to mapstructure unchanged.
func (hs decodeHooks) apply(f, t reflect.Value) (any, error) {
	data := f.Interface()
	for _, h := range hs {
		v, ok, err := h(f.Type(), t.Type(), data)
		if !ok {
			continue
		}
		if err != nil {
			return nil, TypeCoercionError{
				From:  f.Type(),
				To:    t.Type(),
				Cause: err,
			}
		}
		return v, nil
	}
	return data, nil
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

func textUnmarshalerHook(from, to reflect.Type, data any) (any, bool, error) {
	if from.Kind() != reflect.String || !reflect.PointerTo(to).Implements(textUnmarshalerType) {
		return nil, false, nil
	}

	v := reflect.New(to)
	err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(data.(string)))
	if err != nil {
		return nil, true, err
	}
	return v.Interface(), true, nil
}

var durationType = reflect.TypeFor[time.Duration]()

func durationHook(from, to reflect.Type, data any) (any, bool, error) {
	if to != durationType {
		return nil, false, nil
	}

	switch from.Kind() {
	case reflect.String:
		d, err := time.ParseDuration(data.(string))
		return d, true, err
	case reflect.Int, reflect.Int64:
		return time.Duration(reflect.ValueOf(data).Int()), true, nil
	case reflect.Float64:
		// JSON numbers
		return time.Duration(data.(float64)), true, nil
	default:
		return nil, false, nil
	}
}
