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

package lrucache

import (
	"errors"
	"fmt"

	"github.com/snarkai/hub/pkg/storage"
)

// Suggested minimum byte budgets for the first (in-memory) and second
// (local disk) tiers of a chain.
const (
	mb = 1000 * 1000

	MinFirstTierBytes  int64 = 32 * mb
	MinSecondTierBytes int64 = 160 * mb
)

// NewChain stacks providers into a cache hierarchy: providers[0] is
// the fastest layer, providers[len-1] the authoritative one, and
// budgets[i] is the byte budget of the tier caching in providers[i].
// len(budgets) must be len(providers)-1.
//
// A single provider is returned as-is; two or more fold from the
// deepest pair upward, and the front tier is returned as the chain.
func NewChain(providers []storage.Provider, budgets []int64) (storage.Provider, error) {
	if len(providers) == 0 {
		return nil, errors.New("lrucache: chain needs at least one provider")
	}
	if len(budgets) != len(providers)-1 {
		return nil, fmt.Errorf("lrucache: chain of %d providers needs %d budgets, got %d",
			len(providers), len(providers)-1, len(budgets))
	}
	for i, b := range budgets {
		if b <= 0 {
			return nil, fmt.Errorf("lrucache: budget %d must be positive, got %d", i, b)
		}
	}
	chain := providers[len(providers)-1]
	for i := len(providers) - 2; i >= 0; i-- {
		chain = NewTier(providers[i], chain, budgets[i])
	}
	return chain, nil
}
