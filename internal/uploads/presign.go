// Package uploads issues presigned PUT URLs against an S3-compatible bucket
// (Cloudflare R2). Clients upload directly; the service never proxies bytes.
package uploads

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the R2 credentials and bucket layout.
type Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// PublicBaseURL is the public bucket root (already including the bucket
	// segment), e.g. https://pub-xxxx.r2.dev/assets.
	PublicBaseURL string
}

// Configured reports whether every required field is set.
func (c Config) Configured() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" &&
		c.Bucket != "" && c.PublicBaseURL != ""
}

// Presigner signs PUT URLs for direct-to-bucket uploads.
type Presigner struct {
	cfg     Config
	presign *s3.PresignClient
}

func New(ctx context.Context, cfg Config) (*Presigner, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("uploads: incomplete R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("uploads: load aws config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &Presigner{
		cfg:     cfg,
		presign: s3.NewPresignClient(client),
	}, nil
}

// PresignPut returns a URL that accepts a PUT with exactly the given
// Content-Type until expiresIn elapses.
func (p *Presigner) PresignPut(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", fmt.Errorf("uploads: presign put: %w", err)
	}
	return req.URL, nil
}

// PublicURL builds the public download URL for a stored key.
func (p *Presigner) PublicURL(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.TrimRight(p.cfg.PublicBaseURL, "/") + "/" + strings.Join(parts, "/")
}

// GuessExt picks a file extension, preferring the original filename over the
// declared MIME type.
func GuessExt(filename, contentType string) string {
	if ext := path.Ext(filename); ext != "" {
		return strings.ToLower(ext)
	}
	if contentType != "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	return ""
}
