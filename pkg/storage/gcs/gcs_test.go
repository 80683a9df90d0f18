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

package gcs

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	gstorage "cloud.google.com/go/storage"

	"github.com/snarkai/hub/pkg/storage"
	"github.com/snarkai/hub/pkg/storage/storagetest"
)

// TestStorage runs the provider contract against a real bucket. It
// is skipped unless HUB_TEST_GCS_BUCKET is set (credentials come from
// Application Default Credentials).
func TestStorage(t *testing.T) {
	bucket := os.Getenv("HUB_TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("skipping manual test without HUB_TEST_GCS_BUCKET set")
	}
	client, err := gstorage.NewClient(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	storagetest.Test(t, func(t *testing.T) (storage.Provider, func()) {
		prefix := fmt.Sprintf("hub-test-%d", time.Now().UnixNano())
		sto := New(client, bucket+"/"+prefix)
		return sto, func() {
			ctx := context.Background()
			_ = storage.EnumerateAll(ctx, sto, func(key string) error {
				return sto.Delete(ctx, key)
			})
		}
	})
}

func TestDirPrefixSplit(t *testing.T) {
	sto := New(nil, "bucket/dir")
	if sto.bucket != "bucket" || sto.dirPrefix != "dir/" {
		t.Errorf("bucket, dirPrefix = %q, %q; want %q, %q", sto.bucket, sto.dirPrefix, "bucket", "dir/")
	}
}
