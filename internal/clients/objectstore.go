package clients

import (
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sony/gobreaker"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/config"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
)

const objectStoreName = "minio"

// bucketAPI is the subset of *minio.Client used by ObjectStoreClient.
type bucketAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

// ObjectStoreClient holds task attachments and worker photos. The underlying
// minio client is a plain HTTP client; there is no connection to release.
type ObjectStoreClient struct {
	cfg       config.ObjectStoreConfig
	cb        *gobreaker.CircuitBreaker
	newClient func(cfg config.ObjectStoreConfig) (bucketAPI, error)

	mu     sync.RWMutex
	client bucketAPI
}

func NewObjectStoreClient(cfg config.ObjectStoreConfig, cb *gobreaker.CircuitBreaker) *ObjectStoreClient {
	return &ObjectStoreClient{
		cfg:       cfg,
		cb:        cb,
		newClient: newMinioClient,
	}
}

func (c *ObjectStoreClient) Name() string { return objectStoreName }

// Connect builds the client and makes sure the configured bucket exists.
func (c *ObjectStoreClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	return execute(c.cb, func() error {
		client, err := c.newClient(c.cfg)
		if err != nil {
			return err
		}
		if err := ensureBucket(ctx, client, c.cfg.Bucket, c.cfg.Region); err != nil {
			return err
		}
		c.client = client
		return nil
	})
}

// Probe checks the bucket is still reachable.
func (c *ObjectStoreClient) Probe(ctx context.Context) orchestrator.ProbeResult {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil {
		return notConnected(objectStoreName)
	}

	return probe(c.cb, objectStoreName, func() error {
		exists, err := client.BucketExists(ctx, c.cfg.Bucket)
		if err != nil {
			return fmt.Errorf("bucket exists: %w", err)
		}
		if !exists {
			return fmt.Errorf("bucket %q missing", c.cfg.Bucket)
		}
		return nil
	})
}

// ensureBucket creates bucket when it does not exist. A failed create is
// tolerated if the bucket shows up anyway, which happens when several role
// processes start at once.
func ensureBucket(ctx context.Context, client bucketAPI, bucket, region string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}

	makeErr := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
	if makeErr == nil {
		return nil
	}

	if exists, err := client.BucketExists(ctx, bucket); err == nil && exists {
		return nil
	}
	return fmt.Errorf("creating bucket %s: %w", bucket, makeErr)
}

func newMinioClient(cfg config.ObjectStoreConfig) (bucketAPI, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client %s: %w", cfg.Endpoint, err)
	}
	return client, nil
}
