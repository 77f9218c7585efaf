package gen_test

import (
	"bytes"
	"testing"

	"github.com/dave/dst/decorator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seafloor/methodpatch/internal/gen"
)

const widgetSrc = `package web

type Widget struct{ id int }

func (w Widget) Render(id int) (string, error) { return "", nil }

func (w *Widget) Reset() {}

func (w Widget) Pair(a, b int) int { return a + b }

func (w Widget) join(parts []string) string { return "" }

func (w Widget) Sum(ns ...int) int { return 0 }
`

func render(t *testing.T, src, typeName string) string {
	t.Helper()
	file, err := decorator.Parse(src)
	require.NoError(t, err)

	generated, err := gen.Generate(file, typeName)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, decorator.Fprint(&buf, generated))
	return buf.String()
}

func TestGenerateProxy(t *testing.T) {
	out := render(t, widgetSrc, "Widget")

	assert.Contains(t, out, "// Code generated by methodpatch gen. DO NOT EDIT.")
	assert.Contains(t, out, "package web")
	assert.Contains(t, out, `"github.com/seafloor/methodpatch/patch"`)
	assert.Contains(t, out, "type WidgetProxy struct")
	assert.Contains(t, out, "Registry *patch.Registry")
	assert.Contains(t, out, "func NewWidgetProxy(target *Widget, reg *patch.Registry) *WidgetProxy")
}

func TestGenerateWrapsExportedMethods(t *testing.T) {
	out := render(t, widgetSrc, "Widget")

	// Value and pointer receivers both route through the proxy.
	assert.Contains(t, out, `p.Registry.Call(p.Target, "Render", a0)`)
	assert.Contains(t, out, `p.Registry.Call(p.Target, "Reset")`)

	// Multi-name parameter fields expand to one argument each.
	assert.Contains(t, out, `p.Registry.Call(p.Target, "Pair", a0, a1)`)

	// Results come back typed.
	assert.Contains(t, out, "r0, _ = out[0].(string)")
	assert.Contains(t, out, "r1, _ = out[1].(error)")

	// A trailing error result receives the dispatch error.
	assert.Contains(t, out, "r1 = err")
}

func TestGenerateSkipsUnexportedAndVariadic(t *testing.T) {
	out := render(t, widgetSrc, "Widget")

	assert.NotContains(t, out, `"join"`)
	assert.NotContains(t, out, `"Sum"`)
}

func TestGenerateUnknownType(t *testing.T) {
	file, err := decorator.Parse(widgetSrc)
	require.NoError(t, err)

	_, err = gen.Generate(file, "Gadget")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no wrappable methods")
}

func TestGenerateMethodWithoutResultsPanicsOnDispatchError(t *testing.T) {
	out := render(t, widgetSrc, "Widget")

	assert.Contains(t, out, "panic(err)")
}
