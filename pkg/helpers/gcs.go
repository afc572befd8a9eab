package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// UploadObject uploads bytes from r into bucket/objectPath with the provided contentType
func UploadObject(ctx context.Context, client *storage.Client, bucket, objectPath, contentType string, r io.Reader) (string, error) {
	wc := client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(bucket, objectPath), nil
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}

// PhotoBucket mirrors uploaded profile photos into a public bucket.
type PhotoBucket struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

func NewPhotoBucket(client *storage.Client, bucket string) *PhotoBucket {
	return &PhotoBucket{Client: client, Bucket: bucket, Prefix: "fotos"}
}

// Upload stores the photo under <prefix>/<uuid><ext> and returns its public URL.
func (b *PhotoBucket) Upload(ctx context.Context, photo []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = http.DetectContentType(photo)
	}
	return UploadObject(ctx, b.Client, b.Bucket, PhotoObjectPath(b.Prefix, contentType), contentType, bytes.NewReader(photo))
}

var photoExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PhotoObjectPath builds a unique object name whose extension follows the content type.
func PhotoObjectPath(prefix, contentType string) string {
	ext, ok := photoExt[contentType]
	if !ok {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return path.Join(prefix, uuid.NewString()+ext)
}
