package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/jmylchreest/riskintel/internal/config"
)

// BlobStore holds untruncated artifact bodies out-of-band, keyed by
// sha256, addressing the "lazy artifact reuse" design note: a 20KiB
// snippet can truncate footers where policy links live. The pipeline writes
// each homepage body here when enabled; C8/C9 work from the in-memory body
// of the current scan and do not read from this store.
type BlobStore struct {
	client  *s3.Client
	bucket  string
	enabled bool
	logger  *slog.Logger
}

// NewBlobStore builds a BlobStore from config. When storage isn't
// configured, every method becomes a no-op so callers can always refetch
// over the network instead.
func NewBlobStore(cfg *appconfig.Config, logger *slog.Logger) (*BlobStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.StorageEnabled {
		logger.Info("blob store disabled - no bucket configured")
		return &BlobStore{enabled: false, logger: logger}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.StorageRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
		o.UsePathStyle = true
	})

	logger.Info("blob store initialized", "bucket", cfg.StorageBucket, "endpoint", cfg.StorageEndpoint)
	return &BlobStore{client: client, bucket: cfg.StorageBucket, enabled: true, logger: logger}, nil
}

// IsEnabled reports whether a backing bucket is configured.
func (b *BlobStore) IsEnabled() bool {
	return b.enabled
}

// Sha256Hex returns the hex-encoded sha256 of body, the blob store's key.
func Sha256Hex(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func blobKey(sha256hex string) string {
	return fmt.Sprintf("artifacts/%s", sha256hex)
}

// Put stores body under its sha256 key, returning the key. A no-op when
// disabled: callers fall back to re-fetching the page directly.
func (b *BlobStore) Put(ctx context.Context, body []byte, contentType string) (string, error) {
	sha := Sha256Hex(body)
	if !b.enabled {
		return sha, nil
	}
	key := blobKey(sha)
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put artifact blob %s: %w", sha, err)
	}
	return sha, nil
}

// Get retrieves the full body for a sha256 key. Returns ok=false if the
// blob store is disabled or the key isn't found, signaling the caller to
// refetch the page over the network instead.
func (b *BlobStore) Get(ctx context.Context, sha256hex string) (body []byte, ok bool, err error) {
	if !b.enabled {
		return nil, false, nil
	}
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(blobKey(sha256hex)),
	})
	if err != nil {
		return nil, false, nil
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read artifact blob %s: %w", sha256hex, err)
	}
	return data, true, nil
}

// NearCap reports whether a snippet of length n against cap should be
// treated as an "unknown tail" per the design note: len >= cap-100.
func NearCap(n, cap int) bool {
	return n >= cap-100
}
