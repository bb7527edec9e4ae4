package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/plearn/pstream/pkg/config"
	"github.com/plearn/pstream/pkg/pstream"
)

type ScanCLI struct {
	Stop           string `help:"Stop characters" default:",;"`
	IgnoreBrackets bool   `help:"Treat [ and ] as ordinary characters"`
	KeepComments   bool   `help:"Keep # comments in the output"`
	In             string `arg:"" help:"Input path, - for stdin or s3://bucket/key"`
}

func (c *ScanCLI) Run(logger *slog.Logger, cfg *config.StreamConfig, op *opener) error {
	ch, err := op.open(context.Background(), c.In)
	if err != nil {
		return err
	}
	s := pstream.NewStream(ch, pstream.WithLogger(logger))
	defer s.Close()

	n, err := scan(s, op.std.Out, c.Stop, c.IgnoreBrackets, !c.KeepComments)
	logger.Info("scanned", "in", c.In, "chunks", n)
	return err
}

// scan prints one line per chunk: the stop character (or EOF) and the
// chunk text, trimmed and quoted.
func scan(s *pstream.Stream, out io.StringWriter, stop string, ignoreBrackets, skipComments bool) (int, error) {
	n := 0
	for {
		var acc strings.Builder
		c, err := s.SmartReadUntilNext(stop, &acc, ignoreBrackets, skipComments)
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return n, err
		}
		chunk := strings.TrimSpace(acc.String())
		if eof && chunk == "" {
			return n, nil
		}
		label := "EOF"
		if !eof {
			label = fmt.Sprintf("%q", rune(c))
		}
		if _, err := out.WriteString(fmt.Sprintf("%s\t%q\n", label, chunk)); err != nil {
			return n, err
		}
		n++
		if eof {
			return n, nil
		}
	}
}
