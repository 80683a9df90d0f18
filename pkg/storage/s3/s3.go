/*
Copyright 2026 The Hub Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package s3 registers the "s3" provider type, storing blobs in an
Amazon Web Services S3 bucket (or any service speaking the S3 API).

Example low-level config:

     "storage": {
         "type": "s3",
         "bucket": "foo/optional/dir",
         "aws_access_key": "...",
         "aws_secret_access_key": "...",
         "region": "us-east-1"
     },
*/
package s3 // import "github.com/snarkai/hub/pkg/storage/s3"

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go4.org/jsonconfig"

	"github.com/snarkai/hub/pkg/storage"
)

type s3Storage struct {
	client s3iface.S3API
	bucket string
	// optional "directory" where the blobs are stored, instead of at
	// the root of the bucket. S3 is actually flat, which in effect
	// just means that all the objects should have this dirPrefix as a
	// prefix of their key. If non empty, it is a slash separated path
	// with a trailing slash and no starting slash.
	dirPrefix string
}

var _ storage.Provider = (*s3Storage)(nil)

func init() {
	storage.RegisterConstructor("s3", newFromConfig)
}

func newFromConfig(config jsonconfig.Obj) (storage.Provider, error) {
	var (
		bucket    = config.RequiredString("bucket")
		accessKey = config.RequiredString("aws_access_key")
		secretKey = config.RequiredString("aws_secret_access_key")
		region    = config.OptionalString("region", "us-east-1")
		hostname  = config.OptionalString("hostname", "")
	)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	awsConfig := aws.NewConfig().
		WithRegion(region).
		WithCredentials(credentials.NewStaticCredentials(accessKey, secretKey, ""))
	if hostname != "" {
		awsConfig = awsConfig.WithEndpoint(hostname).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, err
	}
	return New(s3.New(sess), bucket), nil
}

// New returns a provider storing blobs in the given bucket. The
// bucket may carry a "bucket/dir/prefix" suffix, in which case all
// keys live below that prefix.
func New(client s3iface.S3API, bucket string) storage.Provider {
	var dirPrefix string
	if parts := strings.SplitN(bucket, "/", 2); len(parts) > 1 {
		dirPrefix = parts[1]
		bucket = parts[0]
	}
	if dirPrefix != "" && !strings.HasSuffix(dirPrefix, "/") {
		dirPrefix += "/"
	}
	return &s3Storage{
		client:    client,
		bucket:    bucket,
		dirPrefix: dirPrefix,
	}
}

func (sto *s3Storage) String() string {
	if sto.dirPrefix != "" {
		return fmt.Sprintf("\"s3\" blob storage at bucket %q, directory %q", sto.bucket, sto.dirPrefix)
	}
	return fmt.Sprintf("\"s3\" blob storage at bucket %q", sto.bucket)
}

func isNotFoundErr(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

func (sto *s3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := sto.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &sto.bucket,
		Key:    aws.String(sto.dirPrefix + key),
	})
	if err != nil {
		if isNotFoundErr(err) {
			return nil, fmt.Errorf("s3: %q: %w", key, storage.ErrNotFound)
		}
		return nil, &storage.TransportError{Backend: "s3", Key: key, Err: err}
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &storage.TransportError{Backend: "s3", Key: key, Err: err}
	}
	return b, nil
}

func (sto *s3Storage) GetRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("s3: %q: negative range", key)
	}
	resp, err := sto.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &sto.bucket,
		Key:    aws.String(sto.dirPrefix + key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
	})
	if err != nil {
		if isNotFoundErr(err) {
			return nil, fmt.Errorf("s3: %q: %w", key, storage.ErrNotFound)
		}
		return nil, &storage.TransportError{Backend: "s3", Key: key, Err: err}
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &storage.TransportError{Backend: "s3", Key: key, Err: err}
	}
	return b, nil
}

func (sto *s3Storage) Put(ctx context.Context, key string, data []byte) error {
	_, err := sto.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: &sto.bucket,
		Key:    aws.String(sto.dirPrefix + key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return &storage.TransportError{Backend: "s3", Key: key, Err: err}
	}
	return nil
}

// PutRange is a read-modify-write: S3 has no partial object writes.
func (sto *s3Storage) PutRange(ctx context.Context, key string, data []byte, offset int64, overwrite bool) error {
	if offset < 0 {
		return fmt.Errorf("s3: %q: negative range offset %d", key, offset)
	}
	old, err := sto.Get(ctx, key)
	if err != nil && !storage.IsNotFound(err) {
		return err
	}
	b := storage.ApplyRange(old, data, offset, overwrite)
	return sto.Put(ctx, key, b)
}

func (sto *s3Storage) Contains(ctx context.Context, key string) (bool, error) {
	_, err := sto.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: &sto.bucket,
		Key:    aws.String(sto.dirPrefix + key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFoundErr(err) {
		return false, nil
	}
	return false, &storage.TransportError{Backend: "s3", Key: key, Err: err}
}

func (sto *s3Storage) Delete(ctx context.Context, key string) error {
	// DeleteObject succeeds on absent keys, so probe first.
	ok, err := sto.Contains(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("s3: %q: %w", key, storage.ErrNotFound)
	}
	_, err = sto.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: &sto.bucket,
		Key:    aws.String(sto.dirPrefix + key),
	})
	if err != nil {
		return &storage.TransportError{Backend: "s3", Key: key, Err: err}
	}
	return nil
}

func (sto *s3Storage) EnumerateKeys(ctx context.Context, dest chan<- string, after string, limit int) error {
	defer close(dest)
	input := &s3.ListObjectsV2Input{
		Bucket: &sto.bucket,
		Prefix: &sto.dirPrefix,
	}
	if after != "" {
		input.StartAfter = aws.String(sto.dirPrefix + after)
	}
	n := 0
	var retErr error
	err := sto.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				key := strings.TrimPrefix(aws.StringValue(obj.Key), sto.dirPrefix)
				select {
				case dest <- key:
				case <-ctx.Done():
					retErr = ctx.Err()
					return false
				}
				n++
				if limit > 0 && n == limit {
					return false
				}
			}
			return true
		})
	if retErr != nil {
		return retErr
	}
	if err != nil {
		return &storage.TransportError{Backend: "s3", Err: err}
	}
	return nil
}

func (sto *s3Storage) Len(ctx context.Context) (int, error) {
	return storage.CountKeys(ctx, sto)
}

func (sto *s3Storage) Flush(ctx context.Context) error { return nil }
