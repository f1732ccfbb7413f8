package storage

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"certbatch/internal/errs"
)

const (
	templatePrefix = "templates/"
	archivePrefix  = "archives/"

	archiveContentType = "application/zip"
)

// MinIO stores templates and archives in one bucket under fixed prefixes.
type MinIO struct {
	client *minio.Client
	bucket string
}

var _ Store = (*MinIO)(nil)

// MinIOConfig carries the connection settings for the object store.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinIO connects to the object store and ensures the bucket exists.
func NewMinIO(ctx context.Context, cfg MinIOConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errs.Wrap(errs.CodeStorage, "could not connect to object storage", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errs.Wrap(errs.CodeStorage, "could not check storage bucket", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errs.Wrap(errs.CodeStorage, "could not create storage bucket", err)
		}
	}

	return &MinIO{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinIO) Template(ctx context.Context, id string) ([]byte, error) {
	if id == "" || id != path.Base(id) {
		return nil, errs.Newf(errs.CodeTemplateNotFound, "no template named %q", id)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, templatePrefix+id+templateExt, minio.GetObjectOptions{})
	if err != nil {
		return nil, errs.Wrap(errs.CodeStorage, "could not read template", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, errs.Newf(errs.CodeTemplateNotFound, "no template named %q", id)
		}
		return nil, errs.Wrap(errs.CodeStorage, "could not read template", err)
	}
	return data, nil
}

func (s *MinIO) List(ctx context.Context) ([]TemplateInfo, error) {
	var infos []TemplateInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    templatePrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errs.Wrap(errs.CodeStorage, "could not list templates", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, templatePrefix)
		if !strings.HasSuffix(name, templateExt) {
			continue
		}
		infos = append(infos, TemplateInfo{
			ID:   strings.TrimSuffix(name, templateExt),
			Size: obj.Size,
		})
	}
	return infos, nil
}

func (s *MinIO) Put(ctx context.Context, name string, data []byte) (string, error) {
	handle := path.Base(name)
	_, err := s.client.PutObject(ctx, s.bucket, archivePrefix+handle,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: archiveContentType})
	if err != nil {
		return "", errs.Wrap(errs.CodeStorage, "could not store archive", err)
	}
	return handle, nil
}

func (s *MinIO) Fetch(ctx context.Context, handle string) ([]byte, error) {
	if handle == "" || handle != path.Base(handle) {
		return nil, errs.Newf(errs.CodeStorage, "unknown archive %q", handle)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, archivePrefix+handle, minio.GetObjectOptions{})
	if err != nil {
		return nil, errs.Wrap(errs.CodeStorage, "could not read archive", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errs.Wrap(errs.CodeStorage, "could not read archive", err)
	}
	return data, nil
}
