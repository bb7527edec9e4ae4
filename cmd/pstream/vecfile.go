package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/plearn/pstream/pkg/bytechan"
	"github.com/plearn/pstream/pkg/config"
	"github.com/plearn/pstream/pkg/pstream"
	"github.com/plearn/pstream/pkg/vecfile"
)

type VecfileCLI struct {
	Show    VecfileShowCLI    `cmd:"" help:"Print the header and values of a file"`
	Convert VecfileConvertCLI `cmd:"" help:"Write a file as a Matrix object"`
}

type VecfileShowCLI struct {
	File string `arg:"" help:"VECTOR or MATRIX file (.gz and .zst are decompressed)"`
}

func (c *VecfileShowCLI) Run(logger *slog.Logger, cfg *config.StreamConfig, op *opener) error {
	m, err := vecfile.Load(c.File, op.opts...)
	if err != nil {
		return err
	}
	logger.Debug("loaded", "file", c.File, "header", m.Header.String())
	return show(m, op.std.Out, cfg)
}

func show(m *vecfile.Matrix, out *bytechan.Channel, cfg *config.StreamConfig) error {
	opts, err := streamOptions(cfg, "", pstream.PrettyASCII.String())
	if err != nil {
		return err
	}
	s := pstream.NewStream(out.Retain(), opts...)
	if err := s.WriteRaw(m.Header.String() + "\n"); err != nil {
		return err
	}
	for i := range m.Rows {
		if err := pstream.WriteNumbers(s, m.Row(i)); err != nil {
			return err
		}
		if err := s.WriteRaw("\n"); err != nil {
			return err
		}
	}
	return s.Close()
}

type VecfileConvertCLI struct {
	To   string `help:"Output mode" enum:"${modes}" default:"plearn_ascii"`
	File string `arg:"" help:"VECTOR or MATRIX file"`
	Out  string `arg:"" help:"Output path, - for stdout or s3://bucket/key"`
}

func (c *VecfileConvertCLI) Run(logger *slog.Logger, cfg *config.StreamConfig, op *opener) error {
	m, err := vecfile.Load(c.File, op.opts...)
	if err != nil {
		return err
	}
	opts, err := streamOptions(cfg, "", c.To)
	if err != nil {
		return err
	}
	ch, err := op.create(context.Background(), c.Out)
	if err != nil {
		return err
	}
	s := pstream.NewStream(ch, append(opts, pstream.WithLogger(logger))...)
	err = s.Write(m)
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", c.Out, err)
	}
	logger.Info("converted", "file", c.File, "out", c.Out, "header", m.Header.String())
	return nil
}
