package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/maheshrc27/fbscheduler/configs"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
)

var ErrMediaNotFound = errors.New("media file not found")

// MediaStore keeps uploaded images under flat file names.
type MediaStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]transfer.MediaFile, error)
}

// NewMediaStore picks the backend named by MEDIA_BACKEND.
func NewMediaStore(ctx context.Context, c cfg.Config) (MediaStore, error) {
	if c.MediaBackend == "r2" {
		return NewR2Store(ctx, c.R2)
	}
	return NewLocalStore(c.UploadsDir), nil
}

type localStore struct {
	dir string
}

func NewLocalStore(dir string) MediaStore {
	return &localStore{dir: dir}
}

func (s *localStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

func (s *localStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMediaNotFound
	}
	return data, err
}

func (s *localStore) Delete(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrMediaNotFound
	}
	return err
}

func (s *localStore) List(ctx context.Context) ([]transfer.MediaFile, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []transfer.MediaFile{}, nil
	}
	if err != nil {
		return nil, err
	}

	files := make([]transfer.MediaFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, transfer.MediaFile{
			Name:       e.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return files, nil
}

type r2Store struct {
	client *s3.Client
	bucket string
}

// NewR2Store talks to a Cloudflare R2 bucket through the S3 API.
func NewR2Store(ctx context.Context, r2 cfg.R2) (MediaStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})

	return &r2Store{client: client, bucket: r2.BucketName}, nil
}

func (s *r2Store) Put(ctx context.Context, name string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Info(err.Error())
	}
	return err
}

func (s *r2Store) Get(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrMediaNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (s *r2Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		slog.Info(err.Error())
	}
	return err
}

func (s *r2Store) List(ctx context.Context) ([]transfer.MediaFile, error) {
	files := []transfer.MediaFile{}
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		for _, obj := range page.Contents {
			f := transfer.MediaFile{Name: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				f.ModifiedAt = *obj.LastModified
			}
			files = append(files, f)
		}
	}
	return files, nil
}
