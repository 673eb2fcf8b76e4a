package parquet

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rotisserie/eris"
)

// S3Config locates the bucket region and endpoint. Access is anonymous.
type S3Config struct {
	Region   string
	Endpoint string
}

// NewSession opens an anonymous session, the way public Overture buckets are
// read.
func NewSession(cfg S3Config) (*session.Session, error) {
	awsCfg := &aws.Config{
		Credentials:                   credentials.AnonymousCredentials,
		CredentialsChainVerboseErrors: aws.Bool(true),
		Region:                        aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, eris.Wrap(err, "parquet: new s3 session")
	}
	return sess, nil
}

// SplitS3 splits "s3://bucket/prefix" into bucket and prefix. A bare
// "bucket/prefix" is accepted too.
func SplitS3(location string) (bucket, prefix string, err error) {
	rest := strings.TrimPrefix(location, "s3://")
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", eris.Errorf("parquet: no bucket in %q", location)
	}
	return bucket, prefix, nil
}

// S3Source reads the parquet parts stored under a key prefix.
type S3Source struct {
	Client s3iface.S3API
	Bucket string
	Prefix string
}

func (s S3Source) String() string { return "s3://" + s.Bucket + "/" + s.Prefix }

func (s S3Source) List(ctx context.Context) ([]Part, error) {
	var parts []Part
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.Bucket), Prefix: aws.String(s.Prefix)}
	err := s.Client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, item := range page.Contents {
			key := aws.StringValue(item.Key)
			if !IsParquet(key) {
				continue
			}
			parts = append(parts, Part{Name: key, Size: aws.Int64Value(item.Size)})
		}
		return true
	})
	if err != nil {
		return nil, eris.Wrapf(err, "parquet: list s3://%s/%s", s.Bucket, s.Prefix)
	}
	return parts, nil
}

func (s S3Source) Open(ctx context.Context, p Part) (Object, error) {
	size := p.Size
	if size <= 0 {
		resp, err := s.Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.Bucket),
			Key:    aws.String(p.Name),
		})
		if err != nil {
			return nil, eris.Wrapf(err, "parquet: head %s", p.Name)
		}
		size = aws.Int64Value(resp.ContentLength)
	}
	return &objectReader{ctx: ctx, client: s.Client, bucket: s.Bucket, key: p.Name, size: size}, nil
}

// objectReader reads an S3 object with ranged GETs, so only the footer and
// the column chunks a read needs are transferred.
type objectReader struct {
	// ctx is the context passed to Open. It bounds every later ReadAt, since
	// io.ReaderAt carries none; once it is done reads return its error.
	ctx    context.Context
	client s3iface.S3API
	bucket string
	key    string
	size   int64
	pos    int64
}

func (r *objectReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, eris.Errorf("parquet: negative offset %d", off)
	}
	if off >= r.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	end := off + int64(len(p)) - 1
	if end >= r.size {
		end = r.size - 1
	}
	out, err := r.client.GetObjectWithContext(r.ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, eris.Wrapf(err, "parquet: get %s range %d-%d", r.key, off, end)
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p[:end-off+1])
	if err != nil {
		return n, eris.Wrapf(err, "parquet: read %s", r.key)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *objectReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return 0, eris.Errorf("parquet: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, eris.Errorf("parquet: negative position %d", abs)
	}
	r.pos = abs
	return abs, nil
}

func (r *objectReader) Close() error { return nil }
