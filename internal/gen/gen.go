// Package gen generates typed proxy shims. Given a source file and a
// receiver type, it emits a <Type>Proxy whose methods forward through a
// *patch.Registry, so call sites keep their static signatures while the
// registry decides what actually runs.
package gen

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/seafloor/methodpatch/internal/log"
	"github.com/seafloor/methodpatch/utils"
)

const patchPkgPath = "github.com/seafloor/methodpatch/patch"

var GenCmd = &cobra.Command{
	Use:   "gen <source.go>",
	Short: "Generate a typed proxy routing a type's methods through a registry.",
	Args:  cobra.ExactArgs(1),
	RunE:  genEntry,
}

var (
	flagType string
	flagOut  string
)

func init() {
	GenCmd.Flags().StringVarP(&flagType, "type", "t", "", "receiver type to wrap")
	GenCmd.Flags().StringVarP(&flagOut, "out", "o", "", "output file (default <type>_proxy.go next to the source)")
	_ = GenCmd.MarkFlagRequired("type")
}

func genEntry(cmd *cobra.Command, args []string) error {
	src := args[0]
	fset := token.NewFileSet()
	file, err := decorator.ParseFile(fset, src, nil, parser.ParseComments)
	if err != nil {
		return errors.Wrapf(err, "parse `%s`", src)
	}

	generated, err := Generate(file, flagType)
	if err != nil {
		return err
	}

	out := flagOut
	if out == "" {
		out = filepath.Join(filepath.Dir(src), strings.ToLower(flagType)+"_proxy.go")
	}
	output, err := os.Create(out)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := decorator.Fprint(output, generated); err != nil {
		return errors.Wrapf(err, "write `%s`", out)
	}
	log.Info("proxy generated",
		log.String("type", flagType),
		log.String("out", out),
	)
	return nil
}

// Generate builds the proxy file for typeName from the parsed source. The
// generated file belongs to the same package as the source.
//
// TODO: carry over the source file's imports when method signatures
// reference types from other packages.
func Generate(src *dst.File, typeName string) (*dst.File, error) {
	methods := collectMethods(src, typeName)
	if len(methods) == 0 {
		return nil, errors.Errorf("gen: type `%s` has no wrappable methods", typeName)
	}

	proxyName := typeName + "Proxy"
	decls := []dst.Decl{
		newPatchImportDecl(),
		newProxyTypeDecl(proxyName, typeName),
		newProxyConstructorDecl(proxyName, typeName),
	}
	for _, m := range methods {
		decls = append(decls, newWrapperFuncDecl(proxyName, m))
	}

	file := &dst.File{
		Name:  dst.NewIdent(src.Name.Name),
		Decls: decls,
	}
	file.Decs.Start.Append("// Code generated by methodpatch gen. DO NOT EDIT.", "\n")
	return file, nil
}

// collectMethods returns the exported, non-variadic methods declared on
// typeName (value or pointer receiver).
func collectMethods(src *dst.File, typeName string) []*dst.FuncDecl {
	var methods []*dst.FuncDecl
	for _, decl := range src.Decls {
		funcDecl, ok := decl.(*dst.FuncDecl)
		if !ok || funcDecl.Recv == nil {
			continue
		}
		if receiverTypeName(funcDecl) != typeName {
			continue
		}
		if !funcDecl.Name.IsExported() {
			continue
		}
		if isVariadic(funcDecl.Type) {
			log.Debug("skipping variadic method", log.String("method", funcDecl.Name.Name))
			continue
		}
		methods = append(methods, funcDecl)
	}
	return methods
}

func receiverTypeName(funcDecl *dst.FuncDecl) string {
	utils.True(len(funcDecl.Recv.List) == 1)
	t := funcDecl.Recv.List[0].Type
	for {
		switch actual := t.(type) {
		case *dst.StarExpr:
			t = actual.X
		case *dst.Ident:
			return actual.Name
		default:
			return ""
		}
	}
}

func isVariadic(funcType *dst.FuncType) bool {
	if funcType.Params == nil || len(funcType.Params.List) == 0 {
		return false
	}
	last := funcType.Params.List[len(funcType.Params.List)-1]
	_, ok := last.Type.(*dst.Ellipsis)
	return ok
}

func newPatchImportDecl() *dst.GenDecl {
	return &dst.GenDecl{
		Tok: token.IMPORT,
		Specs: []dst.Spec{
			&dst.ImportSpec{
				Path: &dst.BasicLit{Kind: token.STRING, Value: fmt.Sprintf("%q", patchPkgPath)},
			},
		},
	}
}

// newProxyTypeDecl returns the proxy struct declaration. The target is held
// by pointer so one proxy covers both value and pointer receiver methods.
func newProxyTypeDecl(proxyName, typeName string) *dst.GenDecl {
	return &dst.GenDecl{
		Tok: token.TYPE,
		Specs: []dst.Spec{
			&dst.TypeSpec{
				Name: dst.NewIdent(proxyName),
				Type: &dst.StructType{
					Fields: &dst.FieldList{
						List: []*dst.Field{
							{
								Names: []*dst.Ident{dst.NewIdent("Target")},
								Type:  &dst.StarExpr{X: dst.NewIdent(typeName)},
							},
							{
								Names: []*dst.Ident{dst.NewIdent("Registry")},
								Type:  newPatchRegistryType(),
							},
						},
					},
				},
			},
		},
	}
}

func newProxyConstructorDecl(proxyName, typeName string) *dst.FuncDecl {
	return &dst.FuncDecl{
		Name: dst.NewIdent("New" + proxyName),
		Type: &dst.FuncType{
			Params: &dst.FieldList{
				List: []*dst.Field{
					{
						Names: []*dst.Ident{dst.NewIdent("target")},
						Type:  &dst.StarExpr{X: dst.NewIdent(typeName)},
					},
					{
						Names: []*dst.Ident{dst.NewIdent("reg")},
						Type:  newPatchRegistryType(),
					},
				},
			},
			Results: &dst.FieldList{
				List: []*dst.Field{
					{Type: &dst.StarExpr{X: dst.NewIdent(proxyName)}},
				},
			},
		},
		Body: &dst.BlockStmt{
			List: []dst.Stmt{
				&dst.ReturnStmt{
					Results: []dst.Expr{
						&dst.UnaryExpr{
							Op: token.AND,
							X: &dst.CompositeLit{
								Type: dst.NewIdent(proxyName),
								Elts: []dst.Expr{
									&dst.KeyValueExpr{
										Key:   dst.NewIdent("Target"),
										Value: dst.NewIdent("target"),
									},
									&dst.KeyValueExpr{
										Key:   dst.NewIdent("Registry"),
										Value: dst.NewIdent("reg"),
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func newPatchRegistryType() dst.Expr {
	return &dst.StarExpr{
		X: &dst.SelectorExpr{
			X:   dst.NewIdent("patch"),
			Sel: dst.NewIdent("Registry"),
		},
	}
}
