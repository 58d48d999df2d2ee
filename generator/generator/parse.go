package generator

import (
	"fmt"
	"go/ast"
	"go/token"
	"sort"
	"strings"
	"unicode"
)

const directivePrefix = "//jsg:"

// Kind is a script value type the generated glue can convert.
type Kind int

const (
	KindString Kind = iota
	KindBoolean
	KindNumber
)

var kindGoTypes = map[string]Kind{
	"string":  KindString,
	"bool":    KindBoolean,
	"float64": KindNumber,
}

// Marshaler is the jsg Type value that converts this kind.
func (k Kind) Marshaler() string {
	switch k {
	case KindString:
		return "jsg.String"
	case KindBoolean:
		return "jsg.Boolean"
	default:
		return "jsg.Number"
	}
}

type Param struct {
	Kind Kind
	// NonCoercible params reject values of another type instead of converting
	// them.
	NonCoercible bool
}

type Function struct {
	GoName string
	// Name is the script-visible name.
	Name         string
	Params       []Param
	Result       *Kind
	ReturnsError bool
	Pos          token.Position
}

type Resource struct {
	GoName      string
	ClassName   string
	Constructor *Function
	Methods     []*Function
	Statics     []*Function
}

type Package struct {
	Name      string
	Resources []*Resource
}

type directive struct {
	name string
	arg  string
}

func parseDirective(doc *ast.CommentGroup) (directive, bool) {
	if doc == nil {
		return directive{}, false
	}
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(c.Text, directivePrefix))
		if len(fields) == 0 {
			continue
		}
		d := directive{name: fields[0]}
		if len(fields) > 1 {
			d.arg = fields[1]
		}
		return d, true
	}
	return directive{}, false
}

// ScriptName turns a Go identifier into the lower camel case name used on the
// script side.
func ScriptName(goName string) string {
	runes := []rune(goName)
	for i := range runes {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		// Keep the last capital of an initialism: URLParser -> urlParser.
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// ParseFiles collects the annotated resources of one package.
func ParseFiles(fset *token.FileSet, pkgName string, files []*ast.File) (*Package, error) {
	pkg := &Package{Name: pkgName}
	resources := map[string]*Resource{}

	// Resources first, methods may be declared before their type.
	for _, file := range files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				d, ok := parseDirective(doc)
				if !ok {
					continue
				}
				if d.name != "resource" {
					return nil, fmt.Errorf("%s: //jsg:%s is not allowed on a type", fset.Position(ts.Pos()), d.name)
				}
				if _, ok := ts.Type.(*ast.StructType); !ok {
					return nil, fmt.Errorf("%s: resource %s must be a struct", fset.Position(ts.Pos()), ts.Name.Name)
				}
				if ts.TypeParams != nil {
					return nil, fmt.Errorf("%s: resource %s cannot be generic", fset.Position(ts.Pos()), ts.Name.Name)
				}
				className := d.arg
				if className == "" {
					className = ts.Name.Name
				}
				r := &Resource{GoName: ts.Name.Name, ClassName: className}
				resources[r.GoName] = r
				pkg.Resources = append(pkg.Resources, r)
			}
		}
	}

	for _, file := range files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			d, ok := parseDirective(fn.Doc)
			if !ok {
				continue
			}
			if err := addFunction(fset, resources, fn, d); err != nil {
				return nil, err
			}
		}
	}

	sort.Slice(pkg.Resources, func(i, j int) bool {
		return pkg.Resources[i].GoName < pkg.Resources[j].GoName
	})

	return pkg, nil
}

func addFunction(fset *token.FileSet, resources map[string]*Resource, fn *ast.FuncDecl, d directive) error {
	pos := fset.Position(fn.Pos())

	f := &Function{
		GoName: fn.Name.Name,
		Name:   d.arg,
		Pos:    pos,
	}
	if f.Name == "" {
		f.Name = ScriptName(f.GoName)
	}

	for _, field := range fn.Type.Params.List {
		param, err := parseParam(field.Type)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", pos, f.GoName, err)
		}
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			f.Params = append(f.Params, param)
		}
	}

	var results []ast.Expr
	if fn.Type.Results != nil {
		for _, field := range fn.Type.Results.List {
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				results = append(results, field.Type)
			}
		}
	}
	if len(results) > 0 && isIdent(results[len(results)-1], "error") {
		f.ReturnsError = true
		results = results[:len(results)-1]
	}

	switch d.name {
	case "constructor":
		if fn.Recv != nil {
			return fmt.Errorf("%s: constructor %s must not be a method", pos, f.GoName)
		}
		if len(results) != 1 {
			return fmt.Errorf("%s: constructor %s must return a resource", pos, f.GoName)
		}
		ident, ok := results[0].(*ast.Ident)
		if !ok {
			return fmt.Errorf("%s: constructor %s must return a resource by value", pos, f.GoName)
		}
		r, ok := resources[ident.Name]
		if !ok {
			return fmt.Errorf("%s: constructor %s returns %s which is not a resource", pos, f.GoName, ident.Name)
		}
		if r.Constructor != nil {
			return fmt.Errorf("%s: resource %s already has constructor %s", pos, r.GoName, r.Constructor.GoName)
		}
		r.Constructor = f
		return nil

	case "method", "static":
		if fn.Recv == nil || len(fn.Recv.List) != 1 {
			return fmt.Errorf("%s: //jsg:%s %s must be a method", pos, d.name, f.GoName)
		}
		recv := receiverName(fn.Recv.List[0].Type)
		r, ok := resources[recv]
		if !ok {
			return fmt.Errorf("%s: %s is not a method of a resource", pos, f.GoName)
		}
		if len(results) > 1 {
			return fmt.Errorf("%s: %s must return at most one value besides an error", pos, f.GoName)
		}
		if len(results) == 1 {
			kind, ok := kindOf(results[0])
			if !ok {
				return fmt.Errorf("%s: %s: unsupported result type %s", pos, f.GoName, exprString(results[0]))
			}
			f.Result = &kind
		}

		list := &r.Methods
		if d.name == "static" {
			list = &r.Statics
		}
		for _, existing := range *list {
			if existing.Name == f.Name {
				return fmt.Errorf("%s: duplicate %s %s on %s", pos, d.name, f.Name, r.ClassName)
			}
		}
		*list = append(*list, f)
		return nil

	default:
		return fmt.Errorf("%s: unknown directive //jsg:%s", pos, d.name)
	}
}

func parseParam(expr ast.Expr) (Param, error) {
	if kind, ok := kindOf(expr); ok {
		return Param{Kind: kind}, nil
	}

	if index, ok := expr.(*ast.IndexExpr); ok {
		if sel, ok := index.X.(*ast.SelectorExpr); ok && sel.Sel.Name == "NonCoercible" {
			if kind, ok := kindOf(index.Index); ok {
				return Param{Kind: kind, NonCoercible: true}, nil
			}
		}
	}

	return Param{}, fmt.Errorf("unsupported parameter type %s", exprString(expr))
}

func kindOf(expr ast.Expr) (Kind, bool) {
	ident, ok := expr.(*ast.Ident)
	if !ok {
		return 0, false
	}
	kind, ok := kindGoTypes[ident.Name]
	return kind, ok
}

func isIdent(expr ast.Expr, name string) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && ident.Name == name
}

func receiverName(expr ast.Expr) string {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

func exprString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return "*" + exprString(e.X)
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.IndexExpr:
		return exprString(e.X) + "[" + exprString(e.Index) + "]"
	case *ast.ArrayType:
		return "[]" + exprString(e.Elt)
	case *ast.MapType:
		return "map[" + exprString(e.Key) + "]" + exprString(e.Value)
	default:
		return fmt.Sprintf("%T", expr)
	}
}
