package generator

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/imports"
)

var (
	//go:embed templates/*
	templates embed.FS
)

// Generate loads the package that contains fileName in dir and writes the
// glue for its annotated resources to output, relative to dir. Nothing is
// written when the package has no resources.
func Generate(logger *zap.Logger, dir string, fileName string, output string) error {
	pkgs, err := packages.Load(&packages.Config{
		Dir:  dir,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
	}, fmt.Sprintf("file=%s", fileName))
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		return fmt.Errorf("no package found for %s", fileName)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return fmt.Errorf("could not load package of %s", fileName)
	}

	pkg := pkgs[0]
	logger.Debug("loaded package",
		zap.String("package", pkg.PkgPath),
		zap.Int("files", len(pkg.Syntax)),
	)

	parsed, err := ParseFiles(pkg.Fset, pkg.Name, pkg.Syntax)
	if err != nil {
		return err
	}

	target := filepath.Join(dir, output)
	if len(parsed.Resources) == 0 {
		logger.Info("no resources found", zap.String("package", pkg.PkgPath))
		return nil
	}

	source, err := Render(target, parsed)
	if err != nil {
		return err
	}

	for _, r := range parsed.Resources {
		logger.Info("generated resource",
			zap.String("class", r.ClassName),
			zap.Int("methods", len(r.Methods)),
			zap.Int("statics", len(r.Statics)),
			zap.Bool("constructor", r.Constructor != nil),
		)
	}

	return os.WriteFile(target, source, 0o644)
}

var TemplateFunctions = template.FuncMap{
	"unwrapArgs": unwrapArgs,
	"callExpr":   callExpr,
	"invoke":     invoke,
}

// Render executes the resources template and formats the result.
func Render(fileName string, pkg *Package) ([]byte, error) {
	tmpl, err := template.New("").
		Funcs(TemplateFunctions).
		ParseFS(templates, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	writer := bytes.NewBuffer(nil)
	if err := tmpl.ExecuteTemplate(writer, "resources.tmpl", pkg); err != nil {
		return nil, err
	}

	formatted, err := imports.Process(fileName, writer.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("could not format %s: %w\nsource:\n%s", fileName, err, writer.Bytes())
	}
	return formatted, nil
}

func unwrapArgs(f *Function) string {
	var b strings.Builder
	for i, param := range f.Params {
		if param.NonCoercible {
			fmt.Fprintf(&b, "arg%d, err := jsg.UnwrapNonCoercible(info.Lock(), %s, info.Arg(%d))\n", i, param.Kind.Marshaler(), i)
			b.WriteString("if err != nil {\ninfo.Throw(err)\nreturn\n}\n")
			continue
		}
		fmt.Fprintf(&b, "arg%d := %s.Unwrap(info.Lock(), info.Arg(%d))\n", i, param.Kind.Marshaler(), i)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func callExpr(f *Function, target string) string {
	args := make([]string, len(f.Params))
	for i := range f.Params {
		args[i] = fmt.Sprintf("arg%d", i)
	}
	return target + "(" + strings.Join(args, ", ") + ")"
}

// invoke calls a method and hands its result back to the script.
func invoke(f *Function, target string) string {
	expr := callExpr(f, target)
	switch {
	case f.Result != nil && f.ReturnsError:
		return fmt.Sprintf("result, err := %s\njsg.HandleResult(info, %s, result, err)", expr, f.Result.Marshaler())
	case f.Result != nil:
		return fmt.Sprintf("jsg.HandleResult(info, %s, %s, nil)", f.Result.Marshaler(), expr)
	case f.ReturnsError:
		return fmt.Sprintf("if err := %s; err != nil {\ninfo.Throw(err)\n}", expr)
	default:
		return expr
	}
}
