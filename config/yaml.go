// Copyright (c) 2021 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package config

import (
	"strconv"
	"strings"
)

// mergeMaps merges src into dst. Mappings are merged key by key; any other
// value in src replaces the one in dst.
func mergeMaps(dst interface{}, src interface{}) interface{} {
	if src == nil {
		return dst
	}

	s, ok := src.(map[string]interface{})
	if !ok {
		return src
	}
	d, ok := dst.(map[string]interface{})
	if !ok {
		return src
	}

	for k, v := range s {
		if cur, ok := d[k]; ok && cur != nil {
			d[k] = mergeMaps(cur, v)
		} else {
			d[k] = v
		}
	}
	return d
}

// find walks the dotted path through mappings and sequences.
func find(node interface{}, dottedPath string) (interface{}, bool) {
	if dottedPath == Root {
		return node, node != nil
	}

	for _, part := range strings.Split(dottedPath, ".") {
		switch n := node.(type) {
		case map[string]interface{}:
			v, ok := n[part]
			if !ok {
				return nil, false
			}
			node = v
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(n) {
				return nil, false
			}
			node = n[i]
		default:
			return nil, false
		}
	}
	return node, true
}
