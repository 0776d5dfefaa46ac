// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package maskslog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_Handle(t *testing.T) {
	t.Run("will not mask attrs", func(t *testing.T) {
		t.Run("if no masking funcs are registered", func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

			logger := slog.New(h)
			logger.Info("hello world", slog.String("secret", "super duper secret value"))

			var record struct {
				Message string `json:"msg"`
				Secret  string `json:"secret"`
			}
			err := json.Unmarshal(buf.Bytes(), &record)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello world", record.Message) {
				return
			}
			if !assert.Equal(t, "super duper secret value", record.Secret) {
				return
			}
		})

		t.Run("if slog.Attr key does not match a masking func", func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("random", AnonymousStringAttr),
			)

			logger := slog.New(h)
			logger.Info("hello world", slog.String("secret", "super duper secret value"))

			var record struct {
				Message string `json:"msg"`
				Secret  string `json:"secret"`
			}
			err := json.Unmarshal(buf.Bytes(), &record)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello world", record.Message) {
				return
			}
			if !assert.Equal(t, "super duper secret value", record.Secret) {
				return
			}
		})
	})

	t.Run("will mask attrs", func(t *testing.T) {
		t.Run("if the slog.Attr key matches a masking func", func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Secret("auth_marker"),
			)

			logger := slog.New(h)
			logger.Info("hello world", slog.String("auth_marker", "super duper secret value"), slog.Int("port", 8000))

			var record struct {
				Message    string `json:"msg"`
				AuthMarker string `json:"auth_marker"`
				Port       int    `json:"port"`
			}
			err := json.Unmarshal(buf.Bytes(), &record)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "****", record.AuthMarker) {
				return
			}
			if !assert.Equal(t, 8000, record.Port) {
				return
			}
		})

		t.Run("if the slog.Attr is nested in a group value", func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Secret("auth_marker"),
			)

			logger := slog.New(h)
			logger.Info(
				"hello world",
				slog.Group("server", slog.String("auth_marker", "super duper secret value"), slog.String("host", "localhost")),
			)

			var record struct {
				Server struct {
					AuthMarker string `json:"auth_marker"`
					Host       string `json:"host"`
				} `json:"server"`
			}
			err := json.Unmarshal(buf.Bytes(), &record)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "****", record.Server.AuthMarker) {
				return
			}
			if !assert.Equal(t, "localhost", record.Server.Host) {
				return
			}
		})
	})
}

func TestHandler_WithAttrs(t *testing.T) {
	t.Run("will not mask attrs", func(t *testing.T) {
		t.Run("if there are no masking funcs", func(t *testing.T) {
			var buf bytes.Buffer
			var h slog.Handler = NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
			)
			h = h.WithAttrs([]slog.Attr{slog.String("secret", "super duper secret value")})

			logger := slog.New(h)
			logger.Info("hello world")

			var record struct {
				Message string `json:"msg"`
				Secret  string `json:"secret"`
			}
			err := json.Unmarshal(buf.Bytes(), &record)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello world", record.Message) {
				return
			}
			if !assert.Equal(t, "super duper secret value", record.Secret) {
				return
			}
		})

		t.Run("if none of the keys match a registered masking func", func(t *testing.T) {
			var buf bytes.Buffer
			var h slog.Handler = NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("random", AnonymousStringAttr),
			)
			h = h.WithAttrs([]slog.Attr{slog.String("secret", "super duper secret value")})

			logger := slog.New(h)
			logger.Info("hello world")

			var record struct {
				Message string `json:"msg"`
				Secret  string `json:"secret"`
			}
			err := json.Unmarshal(buf.Bytes(), &record)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello world", record.Message) {
				return
			}
			if !assert.Equal(t, "super duper secret value", record.Secret) {
				return
			}
		})
	})

	t.Run("will mask attrs", func(t *testing.T) {
		t.Run("if any of the keys match a registered masking func", func(t *testing.T) {
			var buf bytes.Buffer
			var h slog.Handler = NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("secret", AnonymousStringAttr),
			)
			h = h.WithAttrs([]slog.Attr{slog.String("secret", "super duper secret value")})

			logger := slog.New(h)
			logger.Info("hello world")

			var record struct {
				Message string `json:"msg"`
				Secret  string `json:"secret"`
			}
			err := json.Unmarshal(buf.Bytes(), &record)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello world", record.Message) {
				return
			}
			if !assert.Equal(t, "****", record.Secret) {
				return
			}
		})

		t.Run("if the secret is logged again on a derived handler", func(t *testing.T) {
			var buf bytes.Buffer
			var h slog.Handler = NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("secret", AnonymousStringAttr),
			)
			h = h.WithAttrs([]slog.Attr{slog.String("service", "gateway")})

			logger := slog.New(h)
			logger.Info("hello world", slog.String("secret", "super duper secret value"))

			var record struct {
				Service string `json:"service"`
				Secret  string `json:"secret"`
			}
			err := json.Unmarshal(buf.Bytes(), &record)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "gateway", record.Service) {
				return
			}
			if !assert.Equal(t, "****", record.Secret) {
				return
			}
		})
	})
}

func TestHandler_WithGroup(t *testing.T) {
	t.Run("will not mask entire group", func(t *testing.T) {
		t.Run("if the group name matchs a registered masking func", func(t *testing.T) {
			var buf bytes.Buffer
			var h slog.Handler = NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("secret", AnonymousStringAttr),
			)
			h = h.WithGroup("secret")

			logger := slog.New(h)
			logger.Info("hello world", slog.String("a", "value"))

			var record struct {
				Message string `json:"msg"`
				Secret  struct {
					A string `json:"a"`
				} `json:"secret"`
			}
			err := json.Unmarshal(buf.Bytes(), &record)
			if !assert.Nil(t, err) {
				t.Log(buf.String())
				return
			}
			if !assert.Equal(t, "hello world", record.Message) {
				return
			}
			if !assert.Equal(t, "value", record.Secret.A) {
				return
			}
		})
	})

	t.Run("will mask sub-attrs", func(t *testing.T) {
		t.Run("if any of the keys match a registered masking func", func(t *testing.T) {
			var buf bytes.Buffer
			var h slog.Handler = NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("a", AnonymousStringAttr),
			)
			h = h.WithGroup("secret")

			logger := slog.New(h)
			logger.Info("hello world", slog.String("a", "super duper secret value"))

			var record struct {
				Message string `json:"msg"`
				Secret  struct {
					A string `json:"a"`
				} `json:"secret"`
			}
			err := json.Unmarshal(buf.Bytes(), &record)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello world", record.Message) {
				return
			}
			if !assert.Equal(t, "****", record.Secret.A) {
				return
			}
		})
	})
}
