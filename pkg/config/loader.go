// Package config loads stream settings from YAML, JSON or CUE files using
// CUE as the underlying parser.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/encoding/yaml"
)

// loadReader parses YAML (and therefore JSON) from r into a CUE value.
// CUE sources with imports need loadValue.
func loadReader(ctx *cue.Context, r io.Reader) (cue.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}
	file, err := yaml.Extract("", data)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to parse config: %w", err)
	}
	val := ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to build CUE value: %w", err)
	}
	return val, nil
}

// loadValue loads a file or directory into a CUE value.
//
// Directories and .cue files go through load.Instances so packages with
// imports work. Other files are parsed as data: .json directly, anything
// else as YAML.
func loadValue(ctx *cue.Context, path string) (cue.Value, error) {
	info, err := os.Stat(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to stat path: %w", err)
	}

	var val cue.Value
	if info.IsDir() || strings.HasSuffix(strings.ToLower(path), ".cue") {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("failed to resolve path: %w", err)
		}
		cfg := &load.Config{
			Dir:       filepath.Dir(absPath),
			DataFiles: true,
		}
		arg := absPath
		if info.IsDir() {
			arg = path
		}
		instances := load.Instances([]string{arg}, cfg)
		if len(instances) == 0 {
			return cue.Value{}, fmt.Errorf("no instances loaded from %s", path)
		}
		if inst := instances[0]; inst.Err != nil {
			return cue.Value{}, fmt.Errorf("failed to load config: %w", inst.Err)
		}
		val = ctx.BuildInstance(instances[0])
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("failed to read file: %w", err)
		}
		if strings.ToLower(filepath.Ext(path)) == ".json" {
			val = ctx.CompileBytes(data, cue.Filename(path))
		} else {
			file, err := yaml.Extract(path, data)
			if err != nil {
				return cue.Value{}, fmt.Errorf("failed to parse YAML: %w", err)
			}
			val = ctx.BuildFile(file)
		}
	}

	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to build CUE value: %w", err)
	}
	return val, nil
}

// LoadWithSchema loads path, unifies it with the definition named def in
// the CUE source schema, validates the result and decodes it into a T.
// Definitions are closed, so unknown fields are rejected.
func LoadWithSchema[T any](path, schema, def string) (*T, error) {
	ctx := cuecontext.New()
	val, err := loadValue(ctx, path)
	if err != nil {
		return nil, err
	}
	return unify[T](ctx, val, schema, def)
}

func unify[T any](ctx *cue.Context, val cue.Value, schema, def string) (*T, error) {
	s := ctx.CompileString(schema, cue.Filename("schema.cue"))
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	d := s.LookupPath(cue.ParsePath(def))
	if !d.Exists() {
		return nil, fmt.Errorf("schema has no definition %s", def)
	}
	val = d.Unify(val)
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return decode[T](val)
}

func decode[T any](val cue.Value) (*T, error) {
	var cfg T
	if err := val.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}
