// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// FileOpenError is returned from a FileReader which could not open its file.
type FileOpenError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e FileOpenError) Error() string {
	return fmt.Sprintf("failed to open config file %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e FileOpenError) Unwrap() error {
	return e.Cause
}

// FileReader is an io.Reader which defers opening its file until the
// first Read. This lets a Source be declared before the file exists.
type FileReader struct {
	fs   fs.FS
	path string

	openOnce sync.Once
	openErr  error
	file     fs.File
}

// NewFileReader configures a FileReader for path within fsys.
func NewFileReader(fsys fs.FS, path string) *FileReader {
	return &FileReader{
		fs:   fsys,
		path: path,
	}
}

// Read implements the io.Reader interface.
func (r *FileReader) Read(b []byte) (int, error) {
	r.openOnce.Do(func() {
		f, err := r.fs.Open(r.path)
		if err != nil {
			r.openErr = FileOpenError{Path: r.path, Cause: err}
			return
		}
		r.file = f
	})
	if r.openErr != nil {
		return 0, r.openErr
	}
	return r.file.Read(b)
}

// Close implements the io.Closer interface. Closing a reader whose
// file was never opened is a no-op.
func (r *FileReader) Close() error {
	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	return err
}

// UnknownFormatError is returned when a config file's extension
// does not name a supported Format.
type UnknownFormatError struct {
	Path string
}

// Error implements the error interface.
func (e UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown config file format: %s", e.Path)
}

// FormatOf infers the Format of a config file from its extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYaml, nil
	case ".json":
		return FormatJson, nil
	default:
		return "", UnknownFormatError{Path: name}
	}
}

// FromFile returns a Source which reads name from fsys, decoding it
// by the Format its extension names. The file is opened lazily.
func FromFile(fsys fs.FS, name string) (Source, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	r := NewFileReader(fsys, name)
	switch format {
	case FormatJson:
		return FromJson(r), nil
	default:
		return FromYaml(r), nil
	}
}
