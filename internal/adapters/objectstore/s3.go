// Package objectstore issues upload destinations and moves image bytes to them.
//
// S3Presigner and LocalStore are the two server-side issuers; APIClient and
// HTTPPutter are the client-side halves used by the image upload controller.
package objectstore

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"practice/internal/domain/image"
)

// DefaultPresignExpiry bounds how long an issued upload URL accepts its PUT.
const DefaultPresignExpiry = 15 * time.Minute

// S3Config configures an S3Presigner.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional; set for MinIO or R2
	AccessKeyID     string
	SecretAccessKey string
	CDNBase         string
	Expiry          time.Duration
}

// S3Presigner issues presigned PUT URLs against an S3-compatible bucket.
// Objects live at <folder>/<key> so image.URL can rebuild the address from the CDN base.
type S3Presigner struct {
	client  *s3.PresignClient
	bucket  string
	cdnBase string
	expiry  time.Duration
	now     func() time.Time
}

// NewS3Presigner builds the presign client. No network call is made.
// PRE: cfg.Bucket and cfg.Region are non-empty
func NewS3Presigner(cfg S3Config) *S3Presigner {
	awsCfg := aws.Config{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	return &S3Presigner{
		client:  s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		cdnBase: cfg.CDNBase,
		expiry:  expiry,
		now:     time.Now,
	}
}

// RequestUpload presigns a single PUT for a new object in folder.
// POST: Returns image.ErrInvalidContentType for types outside the allow-list
func (p *S3Presigner) RequestUpload(ctx context.Context, folder image.Folder, itemID, contentType string) (image.UploadResponse, error) {
	key, err := newKey(folder, itemID, contentType, p.now())
	if err != nil {
		return image.UploadResponse{}, err
	}

	objectKey := path.Join(string(folder), key)
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.expiry))
	if err != nil {
		return image.UploadResponse{}, fmt.Errorf("presign %s: %w", objectKey, err)
	}

	return image.UploadResponse{
		UploadURL: req.URL,
		ViewURL:   image.URL(p.cdnBase, key, folder),
		Key:       key,
	}, nil
}

// newKey checks the request shared by every issuer and mints the object key.
func newKey(folder image.Folder, itemID, contentType string, now time.Time) (string, error) {
	if _, err := image.ParseFolder(string(folder)); err != nil {
		return "", err
	}
	if !image.IsAllowedContentType(contentType) {
		return "", image.ErrInvalidContentType
	}
	return image.NewObjectKey(itemID, contentType, now)
}
