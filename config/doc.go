// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides layered configuration management.
//
// Config values come from one or more [Source]s which are applied, in order,
// to a key value [Store]. Later sources override earlier ones. The merged
// values can then be decoded into a struct using the "config" struct tag:
//
//	file, err := config.FromFile(os.DirFS("."), "gateway.yaml")
//	if err != nil {
//	    return err
//	}
//
//	m, err := config.Read(
//	    config.FromYaml(config.RenderTextTemplate(base, config.TemplateFunc("env", os.Getenv))),
//	    file,
//	    config.Map{"server": map[string]any{"port": 8080}},
//	)
//	if err != nil {
//	    return err
//	}
//
//	var cfg struct {
//	    Server struct {
//	        Port     int           `config:"port"`
//	        Interval time.Duration `config:"interval"`
//	    } `config:"server"`
//	}
//	err = m.Unmarshal(&cfg)
//
// Fields implementing [encoding.TextUnmarshaler] are decoded from strings.
// [time.Duration] fields accept duration strings or plain numbers of
// nanoseconds, so JSON documents may use either.
package config
