package main

import (
	"context"
	"log/slog"

	"github.com/plearn/pstream/pkg/bytechan"
	"github.com/plearn/pstream/pkg/bytechan/s3chan"
	"github.com/plearn/pstream/pkg/config"
)

// opener resolves command line paths to channels: "-" is the standard
// stream, s3://bucket/key an S3 object, anything else a local file.
type opener struct {
	std    *bytechan.Std
	opts   []bytechan.Option
	logger *slog.Logger
	s3     s3chan.API
}

func newOpener(std *bytechan.Std, cfg *config.StreamConfig, logger *slog.Logger) *opener {
	opts := append(cfg.ChannelOptions(), bytechan.WithLogger(logger))
	return &opener{std: std, opts: opts, logger: logger}
}

func (o *opener) client(ctx context.Context) (s3chan.API, error) {
	if o.s3 == nil {
		c, err := s3chan.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		o.s3 = c
	}
	return o.s3, nil
}

func (o *opener) open(ctx context.Context, path string) (*bytechan.Channel, error) {
	if path == "-" {
		return o.std.In.Retain(), nil
	}
	if bucket, key, ok := s3chan.ParseURL(path); ok {
		api, err := o.client(ctx)
		if err != nil {
			return nil, err
		}
		return s3chan.Open(ctx, api, bucket, key, o.opts...)
	}
	return bytechan.Open(path, o.opts...)
}

func (o *opener) create(ctx context.Context, path string) (*bytechan.Channel, error) {
	if path == "-" {
		return o.std.Out.Retain(), nil
	}
	if bucket, key, ok := s3chan.ParseURL(path); ok {
		api, err := o.client(ctx)
		if err != nil {
			return nil, err
		}
		return s3chan.Create(ctx, api, bucket, key, o.opts...), nil
	}
	return bytechan.Create(path, o.opts...)
}
