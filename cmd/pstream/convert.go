package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/plearn/pstream/pkg/config"
	"github.com/plearn/pstream/pkg/pstream"
)

const modeEnum = ",raw_ascii,raw_binary,pretty_ascii,plearn_ascii,plearn_binary"

type ConvertCLI struct {
	From string `help:"Input mode (overrides the config file)" enum:"${modes}" default:""`
	To   string `help:"Output mode (overrides the config file)" enum:"${modes}" default:""`
	In   string `arg:"" help:"Input path, - for stdin or s3://bucket/key"`
	Out  string `arg:"" help:"Output path, - for stdout or s3://bucket/key"`
}

// streamOptions applies mode flags on top of the config file settings.
func streamOptions(cfg *config.StreamConfig, from, to string) ([]pstream.Option, error) {
	opts, err := cfg.StreamOptions()
	if err != nil {
		return nil, err
	}
	if from != "" {
		m, err := pstream.ParseMode(from)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pstream.WithInputMode(m))
	}
	if to != "" {
		m, err := pstream.ParseMode(to)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pstream.WithOutputMode(m))
	}
	return opts, nil
}

func (c *ConvertCLI) Run(logger *slog.Logger, cfg *config.StreamConfig, op *opener) error {
	ctx := context.Background()
	opts, err := streamOptions(cfg, c.From, c.To)
	if err != nil {
		return err
	}
	opts = append(opts, pstream.WithLogger(logger))

	in, err := op.open(ctx, c.In)
	if err != nil {
		return err
	}
	r := pstream.NewStream(in, opts...)
	defer r.Close()

	out, err := op.create(ctx, c.Out)
	if err != nil {
		return err
	}
	w := pstream.NewStream(out, opts...)

	n, err := convert(r, w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("convert %s: %w", c.In, err)
	}
	logger.Info("converted", "in", c.In, "out", c.Out, "values", n,
		"from", r.InputMode(), "to", w.OutputMode())
	return nil
}

// convert copies every top-level value from r to w. Reference numbering is
// shared across the whole document on both sides.
func convert(r, w *pstream.Stream) (int, error) {
	n := 0
	for {
		v, err := r.ReadValue()
		if errors.Is(err, io.EOF) {
			return n, w.Flush()
		}
		if err != nil {
			return n, err
		}
		if err := w.Write(v); err != nil {
			return n, err
		}
		n++
	}
}
