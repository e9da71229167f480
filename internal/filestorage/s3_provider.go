package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"linkcard/backend/pkg/config"
	applog "linkcard/backend/pkg/log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsGoConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3StorageProvider implements FileStorageProvider on any S3-compatible store.
type S3StorageProvider struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucketName string
	baseURL    string
}

// InitializeS3Provider builds an S3 client from static credentials. When
// STORAGE_ENDPOINT is set (MinIO, R2, Spaces...) path-style addressing is used.
func InitializeS3Provider(ctx context.Context) (*S3StorageProvider, error) {
	bucket := config.Cfg.StorageBucket
	region := config.Cfg.StorageRegion
	if bucket == "" {
		return nil, fmt.Errorf("STORAGE_BUCKET not set: %w", ErrNotConfigured)
	}
	if region == "" {
		region = "us-east-1"
	}

	sdkConfig, err := awsGoConfig.LoadDefaultConfig(ctx,
		awsGoConfig.WithRegion(region),
		awsGoConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.Cfg.StorageAccessKey,
			config.Cfg.StorageSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for S3: %w", err)
	}

	endpoint := strings.TrimRight(config.Cfg.StorageEndpoint, "/")
	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	fallback := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	if endpoint != "" {
		fallback = endpoint + "/" + bucket
	}

	applog.L.Info("S3 storage provider initialized",
		zap.String("bucket", bucket),
		zap.String("region", region),
		zap.String("endpoint", endpoint))

	return &S3StorageProvider{
		client:     client,
		uploader:   manager.NewUploader(client),
		bucketName: bucket,
		baseURL:    publicBase(config.Cfg.StoragePublicURL, fallback),
	}, nil
}

func (s *S3StorageProvider) UploadFile(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
		Body:   content,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload file to S3 (bucket: %s, key: %s): %w", s.bucketName, key, err)
	}
	return s.PublicURL(key), nil
}

func (s *S3StorageProvider) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isS3NotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("head object %s: %w", key, err)
}

func (s *S3StorageProvider) ListObjects(ctx context.Context) ([]Object, error) {
	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects in %s: %w", s.bucketName, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(obj.Key),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

func (s *S3StorageProvider) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("object key cannot be empty for DeleteFile")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("failed to delete object '%s' from S3 bucket '%s': %w", key, s.bucketName, err)
	}
	return nil
}

func (s *S3StorageProvider) PublicURL(key string) string {
	return s.baseURL + key
}

// BucketExists reports whether the configured bucket is reachable.
func (s *S3StorageProvider) BucketExists(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	if err != nil {
		return fmt.Errorf("bucket %s not reachable: %w", s.bucketName, err)
	}
	return nil
}

func isS3NotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
