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

package main

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/types"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/gobeans/beans/internal/beanreflect"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/tools/imports"
)

const _header = "// Code generated by beangen. DO NOT EDIT."

type generator struct {
	log    *zap.Logger
	output string
}

// Walk generates the registration file of every package below root.
// Directories named testdata or vendor, or starting with "." or "_", are
// skipped like the go tool does.
func (g *generator) Walk(root string) error {
	var errs error
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			name := d.Name()
			if name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
		}
		errs = multierr.Append(errs, g.Package(path))
		return nil
	})
	return multierr.Append(err, errs)
}

// Package generates the registration file of the package in dir.
func (g *generator) Package(dir string) error {
	src, err := g.parseDir(dir)
	if err != nil {
		return err
	}

	out := filepath.Join(dir, g.output)
	if len(src.components) == 0 {
		g.log.Debug("no components", zap.String("dir", dir))
		return g.removeStale(out)
	}

	code, err := render(src, out)
	if err != nil {
		return errors.Wrapf(err, "couldn't generate %s", out)
	}
	if err := os.WriteFile(out, code, 0o644); err != nil {
		return errors.Wrapf(err, "couldn't write %s", out)
	}
	g.log.Info("generated", zap.String("file", out), zap.Int("components", len(src.components)))
	return nil
}

// removeStale deletes a generated file left in a package that no longer
// has components.
func (g *generator) removeStale(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !bytes.HasPrefix(b, []byte(_header)) {
		return nil
	}
	g.log.Info("removed stale file", zap.String("file", path))
	return os.Remove(path)
}

type fileData struct {
	Header     string
	Package    string
	Imports    []string
	Components []componentData
	Decorators []decoratorData
}

type componentData struct {
	Type    string
	Options []string
}

type decoratorData struct {
	Name     string
	Target   string
	Contract string
	Methods  []string
}

var _fileTemplate = template.Must(template.New("file").Parse(`{{.Header}}

package {{.Package}}

import (
	"context"

	"github.com/gobeans/beans"
	"github.com/gobeans/beans/tx"
{{- range .Imports}}
	{{.}}
{{- end}}
)

func init() {
	beans.Register(
{{- range .Components}}
		beans.Component[{{.Type}}]({{if .Options}}
{{- range .Options}}
			{{.}},
{{- end}}
		{{end}}),
{{- end}}
	)
}
{{- range .Decorators}}

// {{.Name}} runs the {{.Contract}} methods of {{.Target}} in transactions.
type {{.Name}} struct {
	target {{.Target}}
	ic     *tx.Interceptor
}

var _ {{.Contract}} = (*{{.Name}})(nil)
{{- range .Methods}}

{{.}}
{{- end}}
{{- end}}
`))

func render(src *source, filename string) ([]byte, error) {
	data := fileData{Header: _header, Package: src.name}
	for _, imp := range src.imports {
		switch imp {
		case `"context"`, `"github.com/gobeans/beans"`, `"github.com/gobeans/beans/tx"`:
			continue
		}
		data.Imports = append(data.Imports, imp)
	}

	var errs error
	for _, c := range src.components {
		cd, dec, err := componentCode(src, c)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "%v: %s", c.pos, c.typeName))
			continue
		}
		data.Components = append(data.Components, cd)
		if dec != nil {
			data.Decorators = append(data.Decorators, *dec)
		}
	}
	if errs != nil {
		return nil, errs
	}

	var buf bytes.Buffer
	if err := _fileTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return imports.Process(filename, buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
}

func componentCode(src *source, c *component) (componentData, *decoratorData, error) {
	typ := c.typeName
	if c.pointer {
		typ = "*" + typ
	}
	cd := componentData{Type: typ}

	if c.beanName != "" {
		cd.Options = append(cd.Options, fmt.Sprintf("beans.Named(%q)", c.beanName))
	}
	for _, inj := range c.injections {
		cd.Options = append(cd.Options, fmt.Sprintf(
			"beans.Inject(%q, func(b %s, d %s) { b.%s = d })", inj.name, typ, inj.typ, inj.name))
	}
	if !c.transactional {
		return cd, nil, nil
	}
	if c.contract == "" {
		cd.Options = append(cd.Options, "beans.TransactionalConcrete()")
		return cd, nil, nil
	}

	fields, err := src.methods(c.contract)
	if err != nil {
		return cd, nil, err
	}
	dec := &decoratorData{
		Name:     beanreflect.Decapitalize(c.typeName) + "Tx",
		Target:   typ,
		Contract: c.contract,
	}
	for _, f := range fields {
		dec.Methods = append(dec.Methods, decoratorMethod(dec.Name, f.Names[0].Name, f.Type.(*ast.FuncType)))
	}
	cd.Options = append(cd.Options, fmt.Sprintf(
		"beans.Transactional(func(b %s, ic *tx.Interceptor) %s {\n\treturn &%s{target: b, ic: ic}\n})",
		typ, c.contract, dec.Name))
	return cd, dec, nil
}

// decoratorMethod writes the method of decorator recv forwarding name
// through the interceptor.
func decoratorMethod(recv, name string, fn *ast.FuncType) string {
	var results []string
	if fn.Results != nil {
		for _, field := range fn.Results.List {
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for j := 0; j < n; j++ {
				results = append(results, types.ExprString(field.Type))
			}
		}
	}

	// Names used by the generated body cannot name parameters.
	reserved := map[string]bool{"d": true, "err": true, "ctx": true}
	for i := range results {
		reserved[fmt.Sprintf("res%d", i)] = true
	}

	var (
		params  []string
		args    []string
		ctxName string
	)
	if fn.Params != nil {
		i := 0
		for _, field := range fn.Params.List {
			typ := types.ExprString(field.Type)
			names := field.Names
			if len(names) == 0 {
				names = []*ast.Ident{nil}
			}
			for _, n := range names {
				isCtx := typ == "context.Context" && ctxName == ""
				pname := fmt.Sprintf("p%d", i)
				if n != nil && n.Name != "_" && (!reserved[n.Name] || isCtx && n.Name == "ctx") {
					pname = n.Name
				}
				i++

				params = append(params, pname+" "+typ)
				switch {
				case isCtx:
					ctxName = pname
					args = append(args, "ctx")
				case strings.HasPrefix(typ, "..."):
					args = append(args, pname+"...")
				default:
					args = append(args, pname)
				}
			}
		}
	}

	returnsErr := len(results) > 0 && results[len(results)-1] == "error"

	ctx, closure := "context.Background()", "func(context.Context)"
	if ctxName != "" {
		ctx, closure = ctxName, "func(ctx context.Context)"
	}
	call := fmt.Sprintf("d.target.%s(%s)", name, strings.Join(args, ", "))

	var b strings.Builder
	fmt.Fprintf(&b, "func (d *%s) %s(%s)%s {\n", recv, name, strings.Join(params, ", "), resultList(results))
	switch {
	case returnsErr && len(results) == 1:
		fmt.Fprintf(&b, "\treturn d.ic.Invoke(%s, %q, %s error {\n\t\treturn %s\n\t})\n", ctx, name, closure, call)
	case returnsErr && len(results) == 2:
		fmt.Fprintf(&b, "\treturn tx.Call(%s, d.ic, %q, %s (%s, error) {\n\t\treturn %s\n\t})\n",
			ctx, name, closure, results[0], call)
	case len(results) == 0:
		fmt.Fprintf(&b, "\td.ic.MustInvoke(%s, %q, %s {\n\t\t%s\n\t})\n", ctx, name, closure, call)
	default:
		values := results
		if returnsErr {
			values = results[:len(results)-1]
		}
		vars := make([]string, len(values))
		for i, typ := range values {
			vars[i] = fmt.Sprintf("res%d", i)
			fmt.Fprintf(&b, "\tvar %s %s\n", vars[i], typ)
		}
		if returnsErr {
			fmt.Fprintf(&b, "\terr := d.ic.Invoke(%s, %q, %s error {\n", ctx, name, closure)
			fmt.Fprintf(&b, "\t\tvar err error\n\t\t%s, err = %s\n\t\treturn err\n\t})\n", strings.Join(vars, ", "), call)
			fmt.Fprintf(&b, "\treturn %s, err\n", strings.Join(vars, ", "))
		} else {
			fmt.Fprintf(&b, "\td.ic.MustInvoke(%s, %q, %s {\n", ctx, name, closure)
			fmt.Fprintf(&b, "\t\t%s = %s\n\t})\n", strings.Join(vars, ", "), call)
			fmt.Fprintf(&b, "\treturn %s\n", strings.Join(vars, ", "))
		}
	}
	b.WriteString("}")
	return b.String()
}

func resultList(results []string) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return " " + results[0]
	}
	return " (" + strings.Join(results, ", ") + ")"
}
