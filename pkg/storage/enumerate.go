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

package storage

import (
	"context"
	"sync"
)

// EnumerateAll runs fn for each key in src.
// If fn returns an error, iteration stops and fn isn't called again.
// EnumerateAll will not return concurrently with fn.
func EnumerateAll(ctx context.Context, src KeyEnumerator, fn func(key string) error) error {
	return EnumerateAllFrom(ctx, src, "", fn)
}

// EnumerateAllFrom is like EnumerateAll, but takes an after parameter.
func EnumerateAllFrom(ctx context.Context, src KeyEnumerator, after string, fn func(key string) error) error {
	const batchSize = 1000
	var mu sync.Mutex // protects returning with an error while fn is still running
	errc := make(chan error, 1)
	for {
		ch := make(chan string, 16)
		n := 0
		go func() {
			var err error
			for key := range ch {
				if err != nil {
					continue
				}
				mu.Lock()
				err = fn(key)
				mu.Unlock()
				after = key
				n++
			}
			errc <- err
		}()
		err := src.EnumerateKeys(ctx, ch, after, batchSize)
		if err != nil {
			mu.Lock() // make sure fn callback finished; no need to unlock
			return err
		}
		if err := <-errc; err != nil {
			return err
		}
		if n < batchSize {
			return nil
		}
	}
}

// CountKeys counts the keys of src by enumerating them. Backends with
// a cheaper count implement Counter directly.
func CountKeys(ctx context.Context, src KeyEnumerator) (int, error) {
	n := 0
	err := EnumerateAll(ctx, src, func(string) error {
		n++
		return nil
	})
	return n, err
}
