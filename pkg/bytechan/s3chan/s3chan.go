// Package s3chan provides byte channels backed by S3 objects.
//
// Reading streams the GetObject body through the channel buffer. Writing
// collects output in memory and uploads it with a single PutObject when the
// last holder closes the channel.
package s3chan

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/plearn/pstream/pkg/bytechan"
)

// API is the subset of the S3 client used here. *s3.Client implements it.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds an S3 client from the default AWS configuration chain.
func NewClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3chan: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// ParseURL splits s3://bucket/key. ok is false for any other form.
func ParseURL(raw string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(raw, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Open returns a read-only channel over the object body. The body is closed
// with the channel.
func Open(ctx context.Context, api API, bucket, key string, opts ...bytechan.Option) (*bytechan.Channel, error) {
	out, err := api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3chan: get s3://%s/%s: %w", bucket, key, err)
	}
	base := []bytechan.Option{
		bytechan.Name("s3://" + bucket + "/" + key),
		bytechan.Owns(out.Body),
	}
	return bytechan.New(out.Body, nil, append(base, opts...)...), nil
}

// upload buffers writes and stores them on Close.
type upload struct {
	ctx    context.Context
	api    API
	bucket string
	key    string
	buf    bytes.Buffer
}

func (u *upload) Write(p []byte) (int, error) {
	return u.buf.Write(p)
}

func (u *upload) Close() error {
	_, err := u.api.PutObject(u.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(u.key),
		Body:          bytes.NewReader(u.buf.Bytes()),
		ContentLength: aws.Int64(int64(u.buf.Len())),
	})
	if err != nil {
		return fmt.Errorf("s3chan: put s3://%s/%s: %w", u.bucket, u.key, err)
	}
	return nil
}

// Create returns a write-only channel whose content is uploaded to the
// object when the channel is closed.
func Create(ctx context.Context, api API, bucket, key string, opts ...bytechan.Option) *bytechan.Channel {
	u := &upload{ctx: ctx, api: api, bucket: bucket, key: key}
	base := []bytechan.Option{
		bytechan.Name("s3://" + bucket + "/" + key),
		bytechan.Owns(u),
	}
	return bytechan.New(nil, u, append(base, opts...)...)
}
