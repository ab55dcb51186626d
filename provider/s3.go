package provider

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/parcelbio/parcel/api"
)

// ensure interfaces are implemented
var (
	_ Reader = (*S3Provider)(nil)
	_ Writer = (*S3Provider)(nil)
)

// S3Provider streams objects addressed by s3://bucket/key locators. Unlike
// signed URLs, access is authorized by the ambient AWS credentials, so the
// locator doubles as its own transfer URL.
type S3Provider struct {
	client   *s3.Client
	uploader *manager.Uploader
}

// S3Options overrides parts of the default AWS config chain. The zero value
// leaves the chain untouched. EndpointURL targets S3-compatible stores such
// as MinIO, which need path-style addressing.
type S3Options struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	EndpointURL  string
}

// NewS3Provider creates an S3Provider from the default AWS config chain with
// any overrides from opts applied.
func NewS3Provider(ctx context.Context, opts S3Options) (*S3Provider, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.AccessKey != "" {
		creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			opts.SessionToken,
		))
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
			o.UsePathStyle = true
		}
	})
	return &S3Provider{
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

// ParseS3Locator splits an s3://bucket/key locator into bucket and key.
func ParseS3Locator(locator string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(locator, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 locator: %s", locator)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in s3 locator: %s", locator)
	}
	return bucket, key, nil
}

// Open opens a streaming read on the object. The advertised size comes from
// the GetObject response.
func (p *S3Provider) Open(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	bucket, key, err := ParseS3Locator(locator)
	if err != nil {
		return nil, 0, err
	}

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open read %q: %w", locator, err)
	}

	size := SizeUnknown
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, size, nil
}

// Create opens a streaming write to the object. Bytes are fed to the upload
// manager through a pipe; Close blocks until the upload completes.
func (p *S3Provider) Create(ctx context.Context, locator string, size int64) (io.WriteCloser, error) {
	bucket, key, err := ParseS3Locator(locator)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	errChan := make(chan error, 1)

	go func() {
		_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		if err != nil {
			pr.CloseWithError(err)
			errChan <- fmt.Errorf("failed to upload %q: %w", locator, err)
			return
		}
		errChan <- nil
	}()

	return &s3WriteCloser{pw: pw, errChan: errChan}, nil
}

type s3WriteCloser struct {
	pw      *io.PipeWriter
	errChan chan error
}

func (w *s3WriteCloser) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *s3WriteCloser) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.errChan
}

// NodeData classifies each locator as an object or a directory-like prefix.
// A locator is a directory when objects exist under key + "/".
func (p *S3Provider) NodeData(ctx context.Context, locators ...string) (map[string]api.Node, error) {
	out := make(map[string]api.Node, len(locators))

	for _, locator := range locators {
		bucket, key, err := ParseS3Locator(locator)
		if err != nil {
			return nil, err
		}
		key = strings.TrimSuffix(key, "/")

		node := api.Node{ID: locator, Name: path.Base(key)}
		if key == "" {
			node.Name = bucket
			node.Type = api.NodeTypeMount
			out[locator] = node
			continue
		}

		_, err = p.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			node.Type = api.NodeTypeObject
			out[locator] = node
			continue
		}

		list, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:  aws.String(bucket),
			Prefix:  aws.String(key + "/"),
			MaxKeys: aws.Int32(1),
		})
		if err != nil {
			return nil, fmt.Errorf("stat failed for %q: %w", locator, err)
		}
		if len(list.Contents) == 0 {
			return nil, fmt.Errorf("no object found at %q", locator)
		}

		node.Type = api.NodeTypeDir
		out[locator] = node
	}

	return out, nil
}

// SignedURL returns the locator itself: s3 reads are authorized by the SDK
// credential chain, not by a pre-signed URL.
func (p *S3Provider) SignedURL(ctx context.Context, locator string) (string, error) {
	if _, _, err := ParseS3Locator(locator); err != nil {
		return "", err
	}
	return locator, nil
}

// SignedURLsRecursive enumerates every object under the prefix in paginated
// ListObjectsV2 calls and maps relative paths to s3 locators.
func (p *S3Provider) SignedURLsRecursive(ctx context.Context, locator string) (map[string]string, error) {
	bucket, key, err := ParseS3Locator(locator)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimSuffix(key, "/")
	if prefix != "" {
		prefix += "/"
	}

	urls := make(map[string]string)
	var continuationToken *string

	for {
		out, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %q: %w", locator, err)
		}

		for _, obj := range out.Contents {
			objKey := aws.ToString(obj.Key)
			// skip zero-byte directory placeholders
			if strings.HasSuffix(objKey, "/") && aws.ToInt64(obj.Size) == 0 {
				continue
			}
			rel := strings.TrimPrefix(objKey, prefix)
			urls[rel] = "s3://" + bucket + "/" + objKey
		}

		if out.IsTruncated != nil && *out.IsTruncated {
			continuationToken = out.NextContinuationToken
		} else {
			break
		}
	}

	return urls, nil
}
