package config

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"io"

	"cuelang.org/go/cue/cuecontext"

	"github.com/plearn/pstream/pkg/bytechan"
	"github.com/plearn/pstream/pkg/pstream"
	"github.com/plearn/pstream/pkg/typecode"
)

//go:embed schema.cue
var schema string

// StreamConfig holds the settings shared by every stream the CLI opens.
type StreamConfig struct {
	InputMode    string `json:"input_mode"`
	OutputMode   string `json:"output_mode"`
	FloatFormat  string `json:"float_format,omitempty"`
	DoubleFormat string `json:"double_format,omitempty"`
	Compression  string `json:"compression"`
	ByteOrder    string `json:"byte_order"`
	BufferSize   int    `json:"buffer_size,omitempty"`
	UngetReserve int    `json:"unget_reserve,omitempty"`
}

// DefaultStreamConfig returns the settings used without a config file.
func DefaultStreamConfig() *StreamConfig {
	return &StreamConfig{
		InputMode:   pstream.PlearnASCII.String(),
		OutputMode:  pstream.PlearnASCII.String(),
		Compression: pstream.CompressNone.String(),
		ByteOrder:   "native",
	}
}

// LoadStreamConfig loads and validates a stream config file.
func LoadStreamConfig(path string) (*StreamConfig, error) {
	return LoadWithSchema[StreamConfig](path, schema, "#StreamConfig")
}

// ReadStreamConfig validates a YAML or JSON stream config read from r.
func ReadStreamConfig(r io.Reader) (*StreamConfig, error) {
	ctx := cuecontext.New()
	val, err := loadReader(ctx, r)
	if err != nil {
		return nil, err
	}
	return unify[StreamConfig](ctx, val, schema, "#StreamConfig")
}

func parseOrder(s string) (binary.ByteOrder, error) {
	switch s {
	case "", "native":
		return typecode.Native, nil
	case "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("unknown byte order %q", s)
}

// StreamOptions converts c into stream options.
func (c *StreamConfig) StreamOptions() ([]pstream.Option, error) {
	in, err := pstream.ParseMode(c.InputMode)
	if err != nil {
		return nil, err
	}
	out, err := pstream.ParseMode(c.OutputMode)
	if err != nil {
		return nil, err
	}
	comp, err := pstream.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	order, err := parseOrder(c.ByteOrder)
	if err != nil {
		return nil, err
	}
	opts := []pstream.Option{
		pstream.WithInputMode(in),
		pstream.WithOutputMode(out),
		pstream.WithCompression(comp),
		pstream.WithByteOrder(order),
	}
	if c.FloatFormat != "" {
		opts = append(opts, pstream.WithFloatFormat(c.FloatFormat))
	}
	if c.DoubleFormat != "" {
		opts = append(opts, pstream.WithDoubleFormat(c.DoubleFormat))
	}
	return opts, nil
}

// ChannelOptions converts the buffer settings of c into channel options.
func (c *StreamConfig) ChannelOptions() []bytechan.Option {
	var opts []bytechan.Option
	if c.BufferSize > 0 {
		opts = append(opts, bytechan.ChunkSize(c.BufferSize), bytechan.OutputSize(c.BufferSize))
	}
	if c.UngetReserve > 0 {
		opts = append(opts, bytechan.UngetReserve(c.UngetReserve))
	}
	return opts
}
