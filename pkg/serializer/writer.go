// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serializer

import (
	"context"
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/puppet-provisioner/pkg/errors"
)

// Format is an output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

const defaultValueKey = "value"

// IsUnknown reports whether f is not one of the supported formats.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	default:
		return true
	}
}

// SupportedFormats returns the accepted --format values.
func SupportedFormats() []string {
	return []string{string(FormatJSON), string(FormatYAML), string(FormatTable)}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f.IsUnknown() {
		return "", errors.NewWithContext(errors.ErrCodeInvalidParams,
			fmt.Sprintf("unknown output format %q, supported: %s", s, strings.Join(SupportedFormats(), ", ")),
			map[string]any{"format": s})
	}
	return f, nil
}

// Serializer writes a value somewhere.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Writer serializes values to an io.Writer. Close must be called when the
// Writer was created by NewFileWriter.
type Writer struct {
	format Format
	output io.Writer
	closer io.Closer
}

// NewWriter returns a Writer for output, which defaults to os.Stdout.
// An unknown format falls back to JSON.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	if format.IsUnknown() {
		format = FormatJSON
	}
	return &Writer{format: format, output: output}
}

// NewFileWriter returns a Writer for path, or for fallback when path is
// empty. The file is created with mode 0600 since facts may carry secrets.
func NewFileWriter(format Format, path string, fallback io.Writer) (*Writer, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return NewWriter(format, fallback), nil
	}
	f, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to create output file", err,
			map[string]any{"path": trimmed})
	}
	w := NewWriter(format, f)
	w.closer = f
	return w, nil
}

// Close releases the output file, if any. It is safe to call more than once.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	c := w.closer
	w.closer = nil
	return c.Close()
}

// Serialize writes v in the Writer's format.
func (w *Writer) Serialize(_ context.Context, v any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.output)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "failed to serialize to JSON", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w.output)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "failed to serialize to YAML", err)
		}
		return enc.Close()
	case FormatTable:
		return w.serializeTable(v)
	default:
		return errors.New(errors.ErrCodeInternal, fmt.Sprintf("unsupported format: %s", w.format))
	}
}

// serializeTable prints v flattened into sorted FIELD/VALUE rows.
func (w *Writer) serializeTable(v any) error {
	flat := make(map[string]any)
	flattenValue(flat, reflect.ValueOf(v), "")
	if len(flat) == 0 {
		_, err := fmt.Fprintln(w.output, "<empty>")
		return err
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tVALUE")
	fmt.Fprintln(tw, "-----\t-----")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, cell(flat[k]))
	}
	return tw.Flush()
}

// cell renders a leaf value on one line.
func cell(v any) string {
	if v == nil {
		return "<nil>"
	}
	return strings.ReplaceAll(fmt.Sprintf("%v", v), "\n", `\n`)
}

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

func flattenValue(out map[string]any, val reflect.Value, prefix string) {
	if !val.IsValid() {
		if prefix != "" {
			out[prefix] = nil
		}
		return
	}

	if val.Type().Implements(textMarshalerType) && val.Kind() != reflect.Pointer {
		if b, err := val.Interface().(encoding.TextMarshaler).MarshalText(); err == nil {
			out[keyOrDefault(prefix)] = string(b)
			return
		}
	}

	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			if prefix != "" {
				out[prefix] = nil
			}
			return
		}
		val = val.Elem()
		if val.Type().Implements(textMarshalerType) {
			flattenValue(out, val, prefix)
			return
		}
	}

	//nolint:exhaustive // scalars share the default branch
	switch val.Kind() {
	case reflect.Struct:
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if field.Anonymous {
				name = ""
			}
			flattenValue(out, val.Field(i), joinKey(prefix, name))
		}
	case reflect.Map:
		for _, k := range val.MapKeys() {
			flattenValue(out, val.MapIndex(k), joinKey(prefix, fmt.Sprintf("%v", k.Interface())))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < val.Len(); i++ {
			flattenValue(out, val.Index(i), joinKey(prefix, fmt.Sprintf("[%d]", i)))
		}
	default:
		out[keyOrDefault(prefix)] = val.Interface()
	}
}

func keyOrDefault(k string) string {
	if k == "" {
		return defaultValueKey
	}
	return k
}

func joinKey(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	if suffix == "" {
		return prefix
	}
	return prefix + "." + suffix
}
