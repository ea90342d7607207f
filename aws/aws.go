// Package aws backs up the node's badger stores to S3 and restores them.
package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"

	"github.com/herdius/herdius-bridge/libs/log"
	"github.com/herdius/herdius-bridge/storage/db"
)

//go:generate mockgen -destination=aws_mocks/aws_mocks.go -package=aws_mocks github.com/herdius/herdius-bridge/aws Uploader,Downloader

// Uploader is the part of s3manager.Uploader used for backups.
type Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// Downloader is the part of s3manager.Downloader used for restores.
type Downloader interface {
	DownloadWithContext(ctx aws.Context, w io.WriterAt, input *s3.GetObjectInput, opts ...func(*s3manager.Downloader)) (int64, error)
}

// NewS3 returns an uploader and downloader sharing one session.
func NewS3(region string) (Uploader, Downloader) {
	sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))
	return s3manager.NewUploader(sess), s3manager.NewDownloader(sess)
}

// BackuperI is the backup service interface
type BackuperI interface {
	Backup(ctx context.Context, height uint64) ([]string, error)
}

var _ BackuperI = (*Backuper)(nil)

// Backuper streams named stores to a bucket.
type Backuper struct {
	uploader Uploader
	bucket   string
	stores   map[string]db.DB
	log      zerolog.Logger
}

// NewBackuper returns a Backuper for the given stores, keyed by name.
func NewBackuper(uploader Uploader, bucket string, stores map[string]db.DB) *Backuper {
	return &Backuper{
		uploader: uploader,
		bucket:   bucket,
		stores:   stores,
		log:      log.Component("backup"),
	}
}

// Key is the object key of a store backup at height.
func Key(name string, height uint64) string {
	return fmt.Sprintf("%s/%020d.bak", name, height)
}

// Backup uploads every store and returns the object locations.
func (b *Backuper) Backup(ctx context.Context, height uint64) ([]string, error) {
	var locations []string
	for name, store := range b.stores {
		loc, err := b.backupStore(ctx, name, store, height)
		if err != nil {
			return locations, fmt.Errorf("could not backup %s to S3: %v", name, err)
		}
		b.log.Info().Str("store", name).Uint64("height", height).Str("location", loc).Msg("uploaded backup")
		locations = append(locations, loc)
	}
	return locations, nil
}

// backupStore streams store into the uploader and returns only after the
// backup goroutine is done with the store.
func (b *Backuper) backupStore(ctx context.Context, name string, store db.DB, height uint64) (string, error) {
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := store.Backup(pw)
		pw.CloseWithError(err)
		done <- err
	}()

	heightStr := strconv.FormatUint(height, 10)
	timeStamp := strconv.FormatInt(time.Now().Unix(), 10)
	res, err := b.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:               aws.String(b.bucket),
		Key:                  aws.String(Key(name, height)),
		Body:                 pr,
		ServerSideEncryption: aws.String("AES256"),
		Tagging:              aws.String(fmt.Sprintf("store=%v&height=%v&timestamp=%v", name, heightStr, timeStamp)),
	})
	if err != nil {
		// unblocks a writer the uploader stopped reading from
		pr.CloseWithError(err)
		if backupErr := <-done; backupErr != nil {
			return "", fmt.Errorf("failed to upload backup: %v (backup stream: %v)", err, backupErr)
		}
		return "", fmt.Errorf("failed to upload backup: %v", err)
	}
	pr.Close()
	if backupErr := <-done; backupErr != nil {
		return "", fmt.Errorf("backup stream: %v", backupErr)
	}
	return res.Location, nil
}

// Run backs up on every tick. height reports the height to label the
// backup with.
func (b *Backuper) Run(ctx context.Context, interval time.Duration, height func() uint64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.Backup(ctx, height()); err != nil {
				b.log.Error().Err(err).Msg("nonfatal: backup failed")
			}
		}
	}
}

// Restore downloads a store backup and loads it into target.
func Restore(ctx context.Context, downloader Downloader, bucket, key string, target db.DB) error {
	buf := aws.NewWriteAtBuffer(nil)
	if _, err := downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("could not download backup %v: %v", key, err)
	}
	if err := target.Load(bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("could not load backup %v: %v", key, err)
	}
	return nil
}
