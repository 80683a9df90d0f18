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
	"fmt"
	"sync"

	"go4.org/jsonconfig"
)

// A Constructor returns a Provider implementation from a
// configuration object.
type Constructor func(config jsonconfig.Obj) (Provider, error)

var (
	mapLock      sync.Mutex
	constructors = make(map[string]Constructor)
)

// RegisterConstructor registers the named provider type. Provider
// packages call it from init; registering the same type twice panics.
func RegisterConstructor(typ string, ctor Constructor) {
	mapLock.Lock()
	defer mapLock.Unlock()
	if _, ok := constructors[typ]; ok {
		panic("storage: Constructor already registered for type: " + typ)
	}
	constructors[typ] = ctor
}

// CreateProvider instantiates the named provider type with config.
func CreateProvider(typ string, config jsonconfig.Obj) (Provider, error) {
	mapLock.Lock()
	ctor, ok := constructors[typ]
	mapLock.Unlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider type %q not registered", typ)
	}
	p, err := ctor(config)
	if err != nil {
		return nil, fmt.Errorf("error instantiating provider of type %q: %v", typ, err)
	}
	return p, nil
}
