// Package loader decodes JSON, YAML and CUE documents into values the codec
// can feed.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// Format names a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatCUE
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatCUE:
		return "cue"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Error codes carried by LoadError.
const (
	ErrCodeRead        = "E001" // File could not be read
	ErrCodeFormat      = "E002" // Unknown file extension
	ErrCodeDecode      = "E003" // Malformed document
	ErrCodeNotConcrete = "E004" // CUE value is incomplete
)

// LoadError reports a document that could not be decoded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return 0, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unknown document format: %s", path)}
}

// LoadFile reads and decodes the document at path.
func LoadFile(path string) (any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: err.Error()}
	}
	return Decode(data, format, path)
}

// Decode decodes data in the given format. name labels CUE positions.
func Decode(data []byte, format Format, name string) (any, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(bytes.NewReader(data))
	case FormatYAML:
		return DecodeYAML(data)
	case FormatCUE:
		return DecodeCUE(data, name)
	}
	return nil, &LoadError{Code: ErrCodeFormat, Message: format.String()}
}

// DecodeJSON decodes exactly one JSON value. Numbers are kept as
// json.Number so integers stay exact.
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("json: %v", err)}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &LoadError{Code: ErrCodeDecode, Message: "json: trailing data after document"}
	}
	return v, nil
}

// DecodeYAML decodes a single YAML document. Mapping keys are stringified.
func DecodeYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("yaml: %v", err)}
	}
	return stringKeys(v), nil
}

// DecodeCUE evaluates a CUE file and exports its concrete value.
func DecodeCUE(data []byte, name string) (any, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, cueError(ErrCodeDecode, err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeNotConcrete, err)
	}
	raw, err := value.MarshalJSON()
	if err != nil {
		return nil, cueError(ErrCodeNotConcrete, err)
	}
	return DecodeJSON(bytes.NewReader(raw))
}

func cueError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	for _, e := range cueerrors.Errors(err) {
		if pos := e.Position(); pos.IsValid() {
			le.Pos = pos
			le.Message = e.Error()
			break
		}
	}
	return le
}

func stringKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, x := range val {
			val[k] = stringKeys(x)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[fmt.Sprint(k)] = stringKeys(x)
		}
		return out
	case []any:
		for i, x := range val {
			val[i] = stringKeys(x)
		}
		return val
	}
	return v
}
