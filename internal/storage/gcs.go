package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSClient struct {
	client     *gcs.Client
	bucketName string
}

// NewGCSClient uses credentialsFile when set, application default
// credentials otherwise.
func NewGCSClient(ctx context.Context, bucketName, credentialsFile string) (*GCSClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (c *GCSClient) UploadFile(ctx context.Context, file *multipart.FileHeader, key string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	writer := c.client.Bucket(c.bucketName).Object(key).NewWriter(ctx)
	writer.ContentType = file.Header.Get("Content-Type")

	if _, err = io.Copy(writer, src); err != nil {
		writer.Close()
		return "", err
	}
	// 对象在 Close 成功后才真正写入
	if err := writer.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, key), nil
}

func (c *GCSClient) Delete(ctx context.Context, key string) error {
	err := c.client.Bucket(c.bucketName).Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}
