// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/z5labs/gateway/config"
	"github.com/z5labs/gateway/config/key"
	"github.com/z5labs/gateway/pkg/maskslog"
	"github.com/z5labs/gateway/pkg/otelconfig"
	"github.com/z5labs/gateway/pkg/otelslog"
	"github.com/z5labs/gateway/server"

	"github.com/spf13/pflag"
)

//go:embed base_config.yaml
var baseConfig []byte

// Config is everything the gateway process can be configured with.
type Config struct {
	Server server.Config `config:"server"`

	Auth struct {
		Expected string `config:"expected"`
	} `config:"auth"`

	Logging struct {
		Level  slog.Level `config:"level"`
		Format string     `config:"format"`
	} `config:"logging"`

	OTel otelconfig.Config `config:"otel"`
}

// UnknownLogFormatError is returned when the configured log format is
// neither "json" nor "text".
type UnknownLogFormatError struct {
	Format string
}

// Error implements the error interface.
func (e UnknownLogFormatError) Error() string {
	return fmt.Sprintf("unknown log format: %s", e.Format)
}

// defaultTo is used as `{{ env "X" | default "y" }}`, so the piped value comes last.
func defaultTo(v any, s string) any {
	if s == "" {
		return v
	}
	return s
}

func baseSource(getenv func(string) string) config.Source {
	return config.FromYaml(
		config.RenderTextTemplate(
			bytes.NewReader(baseConfig),
			config.TemplateFunc("env", getenv),
			config.TemplateFunc("default", defaultTo),
		),
	)
}

func fileSource(path string) (config.Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return config.FromFile(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
}

// flagKeys maps command line flags onto the config keys they override.
var flagKeys = map[string]string{
	"host":     "server.host",
	"port":     "server.port",
	"interval": "server.poll_interval",
}

// flagSource only contains flags which were explicitly set so that
// unset flags never override values from the config files.
func flagSource(fs *pflag.FlagSet) (config.Source, error) {
	m := config.Map{}

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		k, ok := flagKeys[f.Name]
		if !ok {
			return
		}

		var v any
		switch f.Name {
		case "host":
			v, err = fs.GetString(f.Name)
		case "port":
			v, err = fs.GetInt(f.Name)
		case "interval":
			v, err = fs.GetDuration(f.Name)
		}
		if err != nil {
			return
		}
		err = m.Set(key.Parse(k), v)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newLogHandler(w io.Writer, cfg Config) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     cfg.Logging.Level,
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json":
		h = slog.NewJSONHandler(w, opts)
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, UnknownLogFormatError{Format: cfg.Logging.Format}
	}

	h = maskslog.NewHandler(h, maskslog.Secret("auth_marker", "expected"))
	return otelslog.NewHandler(h), nil
}
