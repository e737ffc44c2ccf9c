// Package archive exports the scan-event audit trail to object storage in
// JSONL batches for compliance retention. Export failures never influence
// verification; they are logged and retried on the next tick.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atelierhq/chipverify/internal/common"
	"github.com/atelierhq/chipverify/internal/logging"
	sc "github.com/atelierhq/chipverify/internal/server/config"
	"github.com/atelierhq/chipverify/internal/server/scans"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectClient is the slice of the S3 client the exporter needs.
type objectClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Exporter struct {
	repo   scans.Repository
	config *sc.Config
	logger logging.Logger

	// overridable in tests
	newClient func(ctx context.Context) (objectClient, error)

	cursor int64 // last exported event id; batches are re-exported after restart
}

func NewExporter(repo scans.Repository, cfg *sc.Config, l logging.Logger) *Exporter {
	e := &Exporter{
		repo:   repo,
		config: cfg,
		logger: l.With("module", "archive"),
	}
	e.newClient = e.s3Client
	return e
}

// Run exports pending scan events on every tick until ctx is cancelled.
func (e *Exporter) Run(ctx context.Context) {
	t := time.NewTicker(e.config.ArchiveInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := e.ExportBatch(ctx); err != nil {
				e.logger.Error(ctx, "archive export failed", "error", err)
			}
		}
	}
}

// ExportBatch uploads the next batch of events past the cursor. The cursor
// only advances after a successful put, so no event is skipped.
func (e *Exporter) ExportBatch(ctx context.Context) error {
	events, err := e.repo.ListAfter(ctx, e.cursor, e.config.ArchiveBatchSize)
	if err != nil {
		return fmt.Errorf("listing scan events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encoding scan event %d: %w", ev.ID, err)
		}
	}

	client, err := e.newClient(ctx)
	if err != nil {
		return fmt.Errorf("creating s3 client: %w", err)
	}

	key := archiveKey()
	err = common.RetryTransient(ctx, 3, 100*time.Millisecond, func(ctx context.Context) error {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(e.config.S3Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(buf.Bytes()),
			ContentType: aws.String("application/x-ndjson"),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("uploading archive batch: %w", err)
	}

	e.cursor = events[len(events)-1].ID
	e.logger.Info(ctx, "archived scan events", "count", len(events), "key", key, "cursor", e.cursor)
	return nil
}

func archiveKey() string {
	d := time.Now().UTC()
	return fmt.Sprintf("scans/%d/%d/%d/%v.jsonl", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (e *Exporter) awsConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx,
		config.WithRegion(e.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.config.S3RootUser,
			e.config.S3RootPassword,
			"",
		)))
}

func (e *Exporter) s3Client(ctx context.Context) (objectClient, error) {
	cfg, err := e.awsConfig(ctx)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(e.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// PresignGetURL returns a short-lived GET URL for an archived batch so
// auditors can fetch it without store credentials.
func (e *Exporter) PresignGetURL(ctx context.Context, key string) (string, error) {
	cfg, err := e.awsConfig(ctx)
	if err != nil {
		return "", err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(e.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	req, err := s3.NewPresignClient(client).PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.config.S3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
