package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"eventhub/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    []byte
	deleted []string
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_Upload(t *testing.T) {
	client := &fakeS3{}
	store := newS3Store(client, Config{Bucket: "imgs", Region: "eu-west-1", KeyPrefix: "events"})

	got, err := store.Upload(context.Background(), &domain.Image{Filename: "x.jpg", ContentType: "image/jpeg", Data: pngHeader})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.Key, "events/"))
	assert.True(t, strings.HasSuffix(got.Key, ".png"))
	assert.Equal(t, "https://imgs.s3.eu-west-1.amazonaws.com/"+got.Key, got.URL)
	assert.Equal(t, "image/png", aws.ToString(client.put.ContentType))
	assert.Equal(t, "imgs", aws.ToString(client.put.Bucket))
	assert.Equal(t, pngHeader, client.body)
}

func TestS3Store_UploadRejectsNonImages(t *testing.T) {
	store := newS3Store(&fakeS3{}, Config{Bucket: "imgs"})
	for name, data := range map[string][]byte{
		"empty": nil,
		"text":  []byte("hello world"),
		"html":  []byte("<html><body>x</body></html>"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := store.Upload(context.Background(), &domain.Image{ContentType: "image/png", Data: data})
			require.ErrorIs(t, err, domain.ErrUnsupportedImage)
		})
	}
}

func TestS3Store_Delete(t *testing.T) {
	client := &fakeS3{}
	store := newS3Store(client, Config{Bucket: "imgs", PublicBaseURL: "https://cdn.example/"})
	assert.Equal(t, "https://cdn.example", store.baseURL)

	require.NoError(t, store.Delete(context.Background(), "events/a.png"))
	require.NoError(t, store.Delete(context.Background(), ""))
	assert.Equal(t, []string{"events/a.png"}, client.deleted)

	client.err = errors.New("denied")
	require.Error(t, store.Delete(context.Background(), "events/b.png"))
}

func TestNewImageStore_Discard(t *testing.T) {
	store := NewImageStore(Config{Provider: "noop", KeyPrefix: "events"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	got, err := store.Upload(context.Background(), &domain.Image{Data: pngHeader})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.URL, "/images/events/"))
	require.NoError(t, store.Delete(context.Background(), got.Key))
}
