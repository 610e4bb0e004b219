package manifest

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/bindkit/call"
	"github.com/wippyai/bindkit/errors"
	"github.com/wippyai/bindkit/ownership"
	"github.com/wippyai/bindkit/registry"
)

type num struct {
	value float64
}

func (n *num) Destroy() {}

func (n *num) CopyValue() any {
	cp := *n
	return &cp
}

const sampleManifest = `
version: 1
types:
  - name: Num
    strategy: ref_counted
    prototype: num
    constructors: [make_num]
    methods:
      value: num_value
rules:
  - source: Num
    target: float64
    converter: num_sqrt
functions:
  - name: print_double
    func: print_double
  - name: count
    func: count_refs
    params:
      - index: 0
        type: Num
`

func testEnv() Env {
	return Env{
		Prototypes: map[string]any{
			"num": (*num)(nil),
		},
		Funcs: map[string]any{
			"make_num":     func(v int64) *num { return &num{value: float64(v)} },
			"num_value":    func(n *num) float64 { return n.value },
			"print_double": func(v float64) float64 { return v },
			"count_refs":   func(r ownership.Ref) int64 { return int64(r.Count()) },
		},
		Converters: map[string]registry.ConvertFunc{
			"num_sqrt": func(v any) (any, error) {
				return math.Sqrt(v.(*num).value), nil
			},
		},
	}
}

func TestParseValidManifest(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	require.Len(t, m.Types, 1)
	assert.Equal(t, "Num", m.Types[0].Name)
	assert.Equal(t, "ref_counted", m.Types[0].Strategy)
	require.Len(t, m.Rules, 1)
	assert.Equal(t, "num_sqrt", m.Rules[0].Converter)
	require.Len(t, m.Functions, 2)
}

func TestParseRejectsBadStrategy(t *testing.T) {
	bad := strings.Replace(sampleManifest, "ref_counted", "borrowed", 1)
	_, err := Parse(strings.NewReader(bad))
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.PhaseManifest, e.Phase)
	assert.Equal(t, errors.KindInvalidInput, e.Kind)
}

func TestParseRejectsMissingVersion(t *testing.T) {
	_, err := ParseBytes([]byte("types: []\n"))
	require.Error(t, err)
}

func TestApplyEndToEnd(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	reg := registry.New()
	adapter := call.NewAdapter(reg)
	require.NoError(t, Apply(m, reg, adapter, testEnv()))
	reg.Freeze()

	obj, err := adapter.Construct("Num", int64(9))
	require.NoError(t, err)
	ref := obj.(ownership.Ref)
	defer ref.Release()

	out, err := adapter.Invoke("print_double", ref)
	require.NoError(t, err)
	assert.Equal(t, 3.0, out)

	out, err = adapter.Invoke("count", ref)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out, "handle param retains for the call")
	assert.Equal(t, 1, ref.Count(), "retain released after the call")
}

func TestApplyMissingEnvEntry(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	env := testEnv()
	delete(env.Converters, "num_sqrt")

	reg := registry.New()
	adapter := call.NewAdapter(reg)
	err = Apply(m, reg, adapter, env)
	require.Error(t, err)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindNotFound, e.Kind)
	assert.Equal(t, []string{"rules", "0"}, e.Path)

	// Name resolution happens before registration: a bad manifest
	// leaves the registry untouched.
	_, err = reg.Resolve("Num")
	require.Error(t, err)
}

func TestApplyBaseMustPrecede(t *testing.T) {
	doc := `
version: 1
types:
  - name: Child
    strategy: raw_owned
    prototype: num
    base: Parent
`
	m, err := ParseBytes([]byte(doc))
	require.NoError(t, err)

	reg := registry.New()
	adapter := call.NewAdapter(reg)
	err = Apply(m, reg, adapter, testEnv())
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindNotFound, e.Kind)
}

func TestSchemaDescribesManifest(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, string(data), "ref_counted")
	assert.Contains(t, string(data), "strategy")
}
