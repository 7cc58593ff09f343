package publish

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"wallpaper-catalog/internal/filesystem"
	"wallpaper-catalog/internal/logging"
	"wallpaper-catalog/internal/workers"
)

// Cache policies. Images never change once written, documents do.
const (
	documentCacheControl = "public, max-age=300"
	assetCacheControl    = "public, max-age=31536000, immutable"
)

// ObjectPutter is the subset of the S3 API the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds an S3 client from the default credential chain.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	logging.Info("Initializing S3 client (region %s)", region)

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Publisher uploads local trees to a bucket under a key prefix.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
}

// New creates a Publisher. prefix may be empty.
func New(client ObjectPutter, bucket, prefix string) *Publisher {
	return &Publisher{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Report summarizes an upload.
type Report struct {
	Objects  int
	Bytes    int64
	Duration time.Duration
}

// Tree is a local directory and the key prefix it is published under.
type Tree struct {
	Dir       string
	KeyPrefix string
	Immutable bool
}

// Publish uploads every file of every tree, one tree after another so
// assets can be published before the documents that reference them.
func (p *Publisher) Publish(ctx context.Context, trees ...Tree) (*Report, error) {
	start := time.Now()
	report := &Report{}

	for _, tree := range trees {
		n, size, err := p.publishTree(ctx, tree)
		report.Objects += n
		report.Bytes += size
		if err != nil {
			return report, err
		}
	}

	report.Duration = time.Since(start)
	logging.Info("Published %d objects (%.1f MB) to s3://%s/%s in %v",
		report.Objects, float64(report.Bytes)/(1<<20), p.bucket, p.prefix, report.Duration.Round(time.Millisecond))
	return report, nil
}

func (p *Publisher) publishTree(ctx context.Context, tree Tree) (int, int64, error) {
	// the catalog output directory is a link to its current generation
	dir, err := filepath.EvalSymlinks(tree.Dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve %s: %w", tree.Dir, err)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to walk %s: %w", tree.Dir, err)
	}
	sort.Strings(files)

	cacheControl := documentCacheControl
	if tree.Immutable {
		cacheControl = assetCacheControl
	}

	var uploaded atomic.Int64
	var size atomic.Int64

	err = workers.ForEach(ctx, len(files), workers.ForIO(16), func(ctx context.Context, i int) error {
		rel, err := filepath.Rel(dir, files[i])
		if err != nil {
			return err
		}
		key := p.Key(tree.KeyPrefix, filepath.ToSlash(rel))

		data, err := filesystem.ReadFileWithRetry(files[i], filesystem.DefaultRetryConfig())
		if err != nil {
			return err
		}

		_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:       aws.String(p.bucket),
			Key:          aws.String(key),
			Body:         bytes.NewReader(data),
			ContentType:  aws.String(contentType(key)),
			CacheControl: aws.String(cacheControl),
		})
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}

		logging.Debug("Uploaded s3://%s/%s (%d bytes)", p.bucket, key, len(data))
		uploaded.Add(1)
		size.Add(int64(len(data)))
		return nil
	})

	return int(uploaded.Load()), size.Load(), err
}

// Key joins the publisher prefix, a tree prefix and a relative path.
func (p *Publisher) Key(parts ...string) string {
	all := append([]string{p.prefix}, parts...)
	return strings.TrimPrefix(path.Join(all...), "/")
}

func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".json":
		return "application/json"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
