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

// Package config provides the YAML configuration used to start a container.
//
// A provider is built from one or more YAML sources. Later sources override
// earlier ones key by key:
//
//	p, err := config.NewYAML(
//	  config.File("beans.yaml"),
//	  config.File("beans.production.yaml"),
//	  config.Expand(os.LookupEnv),
//	)
//
// Values are addressed with dotted keys and decoded with Populate:
//
//	var scans []struct {
//	  BasePackage string `yaml:"base-package"`
//	}
//	err := p.Get("beans.component-scan").Populate(&scans)
//
// # Expansion
//
// When Expand or EnvFile is given, $VAR, ${VAR} and ${VAR:default} references in
// the raw YAML are replaced before it is parsed. A reference with no value
// and no default is an error. Use $$ for a literal dollar sign.
package config
