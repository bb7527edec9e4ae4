package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	"github.com/plearn/pstream/pkg/bytechan"
	"github.com/plearn/pstream/pkg/config"
)

type CLI struct {
	Verbose int    `short:"v" type:"counter" help:"Increase log verbosity (-v info, -vv debug)"`
	Config  string `help:"Stream config file (yaml, json or cue)" type:"existingfile" env:"PSTREAM_CONFIG" xor:"config"`
	Inline  string `name:"config-inline" help:"Stream config as inline yaml or json" env:"PSTREAM_CONFIG_INLINE" xor:"config"`

	Convert ConvertCLI `cmd:"" help:"Decode a plearn document and rewrite it in another mode"`
	Scan    ScanCLI    `cmd:"" help:"Split input at stop characters, skipping brackets and strings"`
	Vecfile VecfileCLI `cmd:"" help:"Inspect and convert VECTOR/MATRIX files"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pstream"),
		kong.Description("Read, write and convert PLearn serialization streams."),
		kong.UsageOnError(),
		kong.Vars{"modes": modeEnum},
	)

	logger := newLogger(os.Stderr, cli.Verbose)
	cfg, err := cli.streamConfig(logger)
	ctx.FatalIfErrorf(err)

	std := bytechan.NewStd(bytechan.WithLogger(logger))
	op := newOpener(std, cfg, logger)
	err = ctx.Run(logger, cfg, op)
	if ferr := std.Flush(); err == nil {
		err = ferr
	}
	ctx.FatalIfErrorf(err)
}

func newLogger(w io.Writer, verbosity int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbosity == 1:
		level = slog.LevelInfo
	case verbosity >= 2:
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))
}

func (c *CLI) streamConfig(logger *slog.Logger) (*config.StreamConfig, error) {
	var (
		cfg *config.StreamConfig
		err error
	)
	switch {
	case c.Inline != "":
		cfg, err = config.ReadStreamConfig(strings.NewReader(c.Inline))
	case c.Config != "":
		cfg, err = config.LoadStreamConfig(c.Config)
	default:
		return config.DefaultStreamConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("config loaded", "path", c.Config, "inline", c.Inline != "", "input_mode", cfg.InputMode, "output_mode", cfg.OutputMode)
	return cfg, nil
}
