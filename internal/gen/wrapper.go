package gen

import (
	"fmt"
	"go/token"
	"strconv"

	"github.com/dave/dst"

	"github.com/seafloor/methodpatch/utils"
)

// newWrapperFuncDecl returns the proxy method forwarding one source method
// through the registry:
//
//	func (p *FooProxy) Bar(a0 int) (r0 string, r1 error) {
//		out, err := p.Registry.Call(p.Target, "Bar", a0)
//		if err != nil {
//			r1 = err
//			return
//		}
//		r0, _ = out[0].(string)
//		r1, _ = out[1].(error)
//		return
//	}
//
// Dispatch errors land in the method's trailing error result when it has
// one, otherwise they panic: the proxy has nowhere else to put them.
func newWrapperFuncDecl(proxyName string, m *dst.FuncDecl) *dst.FuncDecl {
	utils.NotNil(m.Type)
	paramTypes := flattenFieldTypes(m.Type.Params)
	resultTypes := flattenFieldTypes(m.Type.Results)

	params := make([]*dst.Field, len(paramTypes))
	callArgs := []dst.Expr{
		newProxyFieldExpr("Target"),
		&dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(m.Name.Name)},
	}
	for i, typ := range paramTypes {
		name := fmt.Sprintf("a%d", i)
		params[i] = &dst.Field{
			Names: []*dst.Ident{dst.NewIdent(name)},
			Type:  dst.Clone(typ).(dst.Expr),
		}
		callArgs = append(callArgs, dst.NewIdent(name))
	}

	results := make([]*dst.Field, len(resultTypes))
	for i, typ := range resultTypes {
		results[i] = &dst.Field{
			Names: []*dst.Ident{dst.NewIdent(fmt.Sprintf("r%d", i))},
			Type:  dst.Clone(typ).(dst.Expr),
		}
	}

	outIdent := "out"
	if len(resultTypes) == 0 {
		outIdent = "_"
	}
	body := []dst.Stmt{
		&dst.AssignStmt{
			Lhs: []dst.Expr{dst.NewIdent(outIdent), dst.NewIdent("err")},
			Tok: token.DEFINE,
			Rhs: []dst.Expr{
				&dst.CallExpr{
					Fun: &dst.SelectorExpr{
						X:   newProxyFieldExpr("Registry"),
						Sel: dst.NewIdent("Call"),
					},
					Args: callArgs,
				},
			},
		},
		newDispatchErrStmt(resultTypes),
	}
	for i, typ := range resultTypes {
		body = append(body, &dst.AssignStmt{
			Lhs: []dst.Expr{dst.NewIdent(fmt.Sprintf("r%d", i)), dst.NewIdent("_")},
			Tok: token.ASSIGN,
			Rhs: []dst.Expr{
				&dst.TypeAssertExpr{
					X: &dst.IndexExpr{
						X:     dst.NewIdent("out"),
						Index: &dst.BasicLit{Kind: token.INT, Value: strconv.Itoa(i)},
					},
					Type: dst.Clone(typ).(dst.Expr),
				},
			},
		})
	}
	if len(resultTypes) > 0 {
		body = append(body, &dst.ReturnStmt{})
	}

	return &dst.FuncDecl{
		Recv: &dst.FieldList{
			List: []*dst.Field{
				{
					Names: []*dst.Ident{dst.NewIdent("p")},
					Type:  &dst.StarExpr{X: dst.NewIdent(proxyName)},
				},
			},
		},
		Name: dst.NewIdent(m.Name.Name),
		Type: &dst.FuncType{
			Params:  &dst.FieldList{List: params},
			Results: &dst.FieldList{List: results},
		},
		Body: &dst.BlockStmt{List: body},
	}
}

// newDispatchErrStmt returns the `if err != nil` statement. With a trailing
// error result the dispatch error is assigned there; otherwise it panics.
func newDispatchErrStmt(resultTypes []dst.Expr) dst.Stmt {
	var onErr []dst.Stmt
	if n := len(resultTypes); n > 0 && isErrorIdent(resultTypes[n-1]) {
		onErr = []dst.Stmt{
			&dst.AssignStmt{
				Lhs: []dst.Expr{dst.NewIdent(fmt.Sprintf("r%d", n-1))},
				Tok: token.ASSIGN,
				Rhs: []dst.Expr{dst.NewIdent("err")},
			},
			&dst.ReturnStmt{},
		}
	} else {
		onErr = []dst.Stmt{
			&dst.ExprStmt{
				X: &dst.CallExpr{
					Fun:  dst.NewIdent("panic"),
					Args: []dst.Expr{dst.NewIdent("err")},
				},
			},
		}
	}
	return &dst.IfStmt{
		Cond: &dst.BinaryExpr{
			X:  dst.NewIdent("err"),
			Op: token.NEQ,
			Y:  dst.NewIdent("nil"),
		},
		Body: &dst.BlockStmt{List: onErr},
	}
}

// flattenFieldTypes expands a field list into one type expression per
// declared name, so `a, b int` contributes two entries.
func flattenFieldTypes(fields *dst.FieldList) []dst.Expr {
	if fields == nil {
		return nil
	}
	var types []dst.Expr
	for _, field := range fields.List {
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			types = append(types, field.Type)
		}
	}
	return types
}

func isErrorIdent(expr dst.Expr) bool {
	ident, ok := expr.(*dst.Ident)
	return ok && ident.Name == "error" && ident.Path == ""
}

func newProxyFieldExpr(field string) dst.Expr {
	return &dst.SelectorExpr{
		X:   dst.NewIdent("p"),
		Sel: dst.NewIdent(field),
	}
}
