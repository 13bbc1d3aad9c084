package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/GeoGate-io/geogate/internal/auth"
	"github.com/GeoGate-io/geogate/internal/config"
)

// ViolationArchive uploads geofence-violation audit records to an
// S3-compatible bucket. Uploads are best-effort and detached from the
// request path; a failed upload is logged and dropped.
type ViolationArchive struct {
	client *s3.Client
	bucket string
}

// NewViolationArchive creates a client for the configured endpoint
// (DigitalOcean Spaces or any S3-compatible store).
func NewViolationArchive(cfg *config.Config) (*ViolationArchive, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if service == s3.ServiceID {
			return aws.Endpoint{
				URL:           cfg.Audit.Endpoint,
				SigningRegion: cfg.Audit.Region,
			}, nil
		}
		return aws.Endpoint{}, fmt.Errorf("unknown endpoint requested")
	})

	awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
		awsConfig.WithEndpointResolverWithOptions(resolver),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Audit.AccessKey, cfg.Audit.SecretKey, "",
		)),
		awsConfig.WithRegion(cfg.Audit.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &ViolationArchive{
		client: client,
		bucket: cfg.Audit.Bucket,
	}, nil
}

// ArchiveViolation writes one violation record as a JSON object keyed by
// user and timestamp. Implements auth.AuditSink.
func (a *ViolationArchive) ArchiveViolation(record auth.ViolationRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		body, err := json.Marshal(record)
		if err != nil {
			log.Printf("[AUDIT] failed to encode violation record: %v", err)
			return
		}

		key := fmt.Sprintf("violations/%s/%s.json",
			record.UserID, record.OccurredAt.UTC().Format("2006-01-02T15-04-05.000"))

		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			log.Printf("[AUDIT] failed to archive violation for user %s: %v", record.UserID, err)
			return
		}
	}()
}
