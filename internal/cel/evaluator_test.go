package cel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentIsShared(t *testing.T) {
	env1, err := Environment()
	require.NoError(t, err)
	env2, err := Environment()
	require.NoError(t, err)
	assert.Same(t, env1, env2)
}

func TestProgramEvalString(t *testing.T) {
	record := map[string]any{
		"nom":     "ange",
		"adresse": "2545 avenu lamber",
		"job":     "developper",
		"age":     int64(31),
		"tags":    []any{"go", "cel"},
	}

	tests := []struct {
		name string
		expr string
		want string
	}{
		{name: "field", expr: "_.nom", want: "ange"},
		{name: "concatenation", expr: `_.nom + " (" + _.job + ")"`, want: "ange (developper)"},
		{name: "strings extension", expr: "_.nom.upperAscii()", want: "ANGE"},
		{name: "int formatted", expr: "_.age", want: "31"},
		{name: "bool formatted", expr: "_.age > 30", want: "true"},
		{name: "bracket access", expr: `_["adresse"]`, want: "2545 avenu lamber"},
		{name: "list size", expr: "size(_.tags)", want: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prg, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, prg.String())

			got, err := prg.EvalString(record)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("_.nom +")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation error")
}

func TestEvalMissingField(t *testing.T) {
	prg, err := Compile("_.missing")
	require.NoError(t, err)
	_, err = prg.EvalString(map[string]any{"nom": "ange"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eval error")
}

func TestEvalListResult(t *testing.T) {
	prg, err := Compile(`[_.nom, _.job]`)
	require.NoError(t, err)
	got, err := prg.Eval(map[string]any{"nom": "ange", "job": "developper"})
	require.NoError(t, err)
	assert.Equal(t, []any{"ange", "developper"}, got)
}

func TestIsExpression(t *testing.T) {
	tests := []struct {
		field string
		want  bool
	}{
		{"nom", false},
		{"first_name", false},
		{"first-name", false},
		{"_.nom", true},
		{`_.nom + " " + _.job`, true},
		{"nom.sub", true},
		{"1abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpression(tt.field))
		})
	}
}
