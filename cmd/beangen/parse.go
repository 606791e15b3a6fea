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
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const _markerPrefix = "//beans:"

// source is what beangen knows about one package.
type source struct {
	dir        string
	name       string
	imports    []string
	interfaces map[string]*ast.InterfaceType
	components []*component
}

type component struct {
	typeName      string
	beanName      string
	pointer       bool
	injections    []injectionField
	transactional bool
	contract      string
	pos           token.Position
}

type injectionField struct {
	name string
	typ  string
}

type markers struct {
	component     bool
	beanName      string
	transactional bool
	contract      string
}

// parseDir reads the non-test Go files of dir. Files that do not parse are
// skipped with a warning.
func (g *generator) parseDir(dir string) (*source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read %s", dir)
	}

	src := &source{dir: dir, interfaces: make(map[string]*ast.InterfaceType)}
	fset := token.NewFileSet()
	seenImports := make(map[string]struct{})

	var errs error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == g.output {
			continue
		}

		path := filepath.Join(dir, name)
		f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			g.log.Warn("skipped file that does not parse", zap.String("file", path), zap.Error(err))
			continue
		}

		switch {
		case src.name == "":
			src.name = f.Name.Name
		case src.name != f.Name.Name:
			g.log.Warn("skipped file of another package",
				zap.String("file", path), zap.String("package", f.Name.Name), zap.String("want", src.name))
			continue
		}

		for _, imp := range f.Imports {
			spec := imp.Path.Value
			if imp.Name != nil {
				if imp.Name.Name == "_" || imp.Name.Name == "." {
					continue
				}
				spec = imp.Name.Name + " " + spec
			}
			if _, ok := seenImports[spec]; !ok {
				seenImports[spec] = struct{}{}
				src.imports = append(src.imports, spec)
			}
		}

		errs = multierr.Append(errs, g.collectTypes(fset, f, src))
	}
	return src, errs
}

func (g *generator) collectTypes(fset *token.FileSet, f *ast.File, src *source) error {
	var errs error
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}

		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			if it, ok := ts.Type.(*ast.InterfaceType); ok {
				src.interfaces[ts.Name.Name] = it
			}

			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			pos := fset.Position(ts.Pos())
			m, err := parseMarkers(doc)
			if err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "%v: %s", pos, ts.Name.Name))
				continue
			}

			if !m.component {
				if m.transactional {
					g.log.Warn("ignored beans:transactional without beans:component",
						zap.String("type", ts.Name.Name), zap.Stringer("pos", pos))
				}
				continue
			}
			if ts.TypeParams != nil {
				g.log.Warn("skipped generic component", zap.String("type", ts.Name.Name), zap.Stringer("pos", pos))
				continue
			}

			c := &component{
				typeName:      ts.Name.Name,
				beanName:      m.beanName,
				transactional: m.transactional,
				contract:      m.contract,
				pos:           pos,
			}
			if st, ok := ts.Type.(*ast.StructType); ok {
				c.pointer = true
				c.injections = g.injections(st, pos)
			}
			src.components = append(src.components, c)
		}
	}
	return errs
}

func (g *generator) injections(st *ast.StructType, pos token.Position) []injectionField {
	var out []injectionField
	for _, field := range st.Fields.List {
		if field.Tag == nil {
			continue
		}
		tag, err := strconv.Unquote(field.Tag.Value)
		if err != nil {
			continue
		}
		if _, ok := reflect.StructTag(tag).Lookup("inject"); !ok {
			continue
		}
		if len(field.Names) == 0 {
			g.log.Warn("ignored embedded field tagged inject",
				zap.String("type", types.ExprString(field.Type)), zap.Stringer("pos", pos))
			continue
		}
		for _, name := range field.Names {
			out = append(out, injectionField{name: name.Name, typ: types.ExprString(field.Type)})
		}
	}
	return out
}

func parseMarkers(doc *ast.CommentGroup) (markers, error) {
	var m markers
	if doc == nil {
		return m, nil
	}

	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, _markerPrefix) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(c.Text, _markerPrefix))
		if len(fields) == 0 {
			return m, errors.Errorf("empty marker %q", c.Text)
		}

		switch fields[0] {
		case "component":
			if len(fields) > 2 {
				return m, errors.Errorf("beans:component takes at most a name, got %q", c.Text)
			}
			m.component = true
			if len(fields) == 2 {
				m.beanName = fields[1]
			}
		case "transactional":
			if len(fields) > 2 {
				return m, errors.Errorf("beans:transactional takes at most one contract, got %q", c.Text)
			}
			m.transactional = true
			if len(fields) == 2 {
				m.contract = fields[1]
			}
		default:
			return m, errors.Errorf("unknown marker %q", c.Text)
		}
	}
	return m, nil
}

// methods returns the method set of the named interface of the package,
// embedded interfaces of the same package included.
func (src *source) methods(name string) ([]*ast.Field, error) {
	var (
		out  []*ast.Field
		seen = make(map[string]struct{})
	)
	var visit func(name string, depth int) error
	visit = func(name string, depth int) error {
		it, ok := src.interfaces[name]
		if !ok {
			return errors.Errorf("%s is not an interface of package %s", name, src.name)
		}
		if depth > len(src.interfaces) {
			return errors.Errorf("interface %s embeds itself", name)
		}

		for _, field := range it.Methods.List {
			switch t := field.Type.(type) {
			case *ast.FuncType:
				for _, n := range field.Names {
					if _, ok := seen[n.Name]; ok {
						continue
					}
					seen[n.Name] = struct{}{}
					out = append(out, &ast.Field{Names: []*ast.Ident{n}, Type: t})
				}
			case *ast.Ident:
				if err := visit(t.Name, depth+1); err != nil {
					return err
				}
			default:
				return errors.Errorf("can't expand %s embedded in %s", types.ExprString(field.Type), name)
			}
		}
		return nil
	}
	return out, visit(name, 0)
}
