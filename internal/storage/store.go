// Package storage provides the blob-store client used for pitch assets
// (videos and decks), backed by any S3-compatible service.
//
// Bucket policy, mirrored from the hosted setup:
//   - The video bucket is private. Uploads return a long-lived presigned GET
//     URL so the asset can be embedded without making the bucket public.
//   - The deck bucket is public. Uploads return the plain public object URL.
//
// Object keys are namespaced by the owner's identifier so per-user cleanup
// and access rules stay trivial: <owner>/<random>.<ext>.
package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mahmoudomarus/chipn/internal/config"
)

// Store is the concrete S3-backed blob store.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient

	endpoint    string
	videoBucket string
	deckBucket  string
	signedTTL   time.Duration
}

// New builds a Store from the configured static credentials (falling back to
// the default AWS credential chain) and the application storage settings. A non-empty cfg.Endpoint switches the client
// to the S3-compatible service at that address (path-style addressing, as
// required by most non-AWS implementations).
func New(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		client:      client,
		presign:     s3.NewPresignClient(client),
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		videoBucket: cfg.VideoBucket,
		deckBucket:  cfg.DeckBucket,
		signedTTL:   cfg.SignedTTL,
	}, nil
}

// UploadVideo stores a pitch video under the owner's namespace in the private
// video bucket and returns a presigned GET URL valid for the configured TTL.
func (s *Store) UploadVideo(ctx context.Context, ownerID, filename, contentType string, data []byte) (string, error) {
	key := ObjectKey(ownerID, filename)
	if err := s.put(ctx, s.videoBucket, key, contentType, data); err != nil {
		return "", err
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.videoBucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) { o.Expires = s.signedTTL })
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", s.videoBucket, key, err)
	}
	return req.URL, nil
}

// UploadDeck stores a pitch deck under the owner's namespace in the public
// deck bucket and returns its public URL.
func (s *Store) UploadDeck(ctx context.Context, ownerID, filename, contentType string, data []byte) (string, error) {
	key := ObjectKey(ownerID, filename)
	if err := s.put(ctx, s.deckBucket, key, contentType, data); err != nil {
		return "", err
	}
	return s.publicURL(s.deckBucket, key), nil
}

// put uploads bytes to bucket/key with the given content type.
func (s *Store) put(ctx context.Context, bucket, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// publicURL joins the endpoint, bucket, and key into the public object URL.
func (s *Store) publicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", s.endpoint, bucket, key)
}

// ObjectKey builds the storage key for an upload: the owner's identifier as
// the prefix, a random hex name, and the original file extension (".bin"
// when the filename has none).
func ObjectKey(ownerID, filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		ext = ".bin"
	}
	name := hex.EncodeToString(uuidBytes())
	return ownerID + "/" + name + ext
}

// uuidBytes returns 16 random bytes from a fresh UUID.
func uuidBytes() []byte {
	u := uuid.New()
	return u[:]
}
