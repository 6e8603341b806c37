package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	huge, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"unit", Unit{}, "()"},
		{"true", Bool(true), "true"},
		{"unsigned", NewUInt(8, 42), "42"},
		{"u128 max", BigUInt(128, huge), "340282366920938463463374607431768211455"},
		{"negative", NewInt(32, -7), "-7"},
		{"bytes", Bytes{0x00, 0xff}, "0x00ff"},
		{"empty bytes", Bytes{}, "0x"},
		{"string with escapes", String("a\"b\n"), `"a\"b\n"`},
		{"char", Char('é'), `"é"`},
		{"seq", Seq{NewUInt(8, 1), NewUInt(8, 2)}, "[1, 2]"},
		{"empty seq", Seq{}, "[]"},
		{"tuple", Tuple{Bool(false), String("x")}, `(false, "x")`},
		{"single tuple", Tuple{NewUInt(8, 1)}, "(1)"},
		{"map", Map{{"a", NewUInt(8, 1)}, {"b", NewUInt(8, 2)}}, "{ a: 1, b: 2 }"},
		{"empty map", Map{}, "{}"},
		{"unit variant", None(), "None"},
		{"tuple variant", Some(NewUInt(128, 5)), "Some(5)"},
		{"map variant", Variant{Name: "Custom", Payload: Map{{"reason", String("no")}}}, `Custom { reason: "no" }`},
		{"nested", Seq{Some(Tuple{NewUInt(8, 1), Tag("A")})}, "[Some((1, A))]"},
		{"nil integer", UInt{Width: 8}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestIndent(t *testing.T) {
	v := Map{
		{"owner", Bytes{0x01}},
		{"values", Seq{NewUInt(8, 1), NewUInt(8, 2)}},
		{"state", Variant{Name: "Active", Payload: Map{{"since", NewUInt(64, 3)}}}},
	}
	want := "{\n" +
		"  owner: 0x01,\n" +
		"  values: [\n" +
		"    1,\n" +
		"    2\n" +
		"  ],\n" +
		"  state: Active {\n" +
		"    since: 3\n" +
		"  }\n" +
		"}"
	require.Equal(t, want, Indent(v, "  "))
}

func TestEqual(t *testing.T) {
	t.Run("integers ignore width", func(t *testing.T) {
		require.True(t, Equal(NewUInt(8, 5), NewUInt(MaxWidth, 5)))
		require.True(t, Equal(NewUInt(8, 5), NewInt(8, 5)))
		require.False(t, Equal(NewUInt(8, 5), NewInt(8, -5)))
		require.False(t, Equal(NewUInt(8, 5), NewUInt(8, 6)))
	})

	t.Run("maps are ordered", func(t *testing.T) {
		a := Map{{"a", Bool(true)}, {"b", Bool(false)}}
		b := Map{{"b", Bool(false)}, {"a", Bool(true)}}
		require.False(t, Equal(a, b))
		require.True(t, Equal(a, Map{{"a", Bool(true)}, {"b", Bool(false)}}))
	})

	t.Run("variants", func(t *testing.T) {
		require.True(t, Equal(Variant{Name: "A"}, Tag("A")))
		require.False(t, Equal(Tag("A"), Tag("B")))
		require.True(t, Equal(Some(Bytes{1}), Some(Bytes{1})))
	})

	t.Run("nil", func(t *testing.T) {
		require.True(t, Equal(nil, nil))
		require.False(t, Equal(nil, Unit{}))
	})
}

func TestMapGet(t *testing.T) {
	m := Map{{"a", Bool(true)}}
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, Bool(true), v)

	_, ok = m.Get("b")
	require.False(t, ok)
}

func TestInteger(t *testing.T) {
	n, ok := Integer(NewInt(16, -3))
	require.True(t, ok)
	require.Equal(t, int64(-3), n.Int64())

	_, ok = Integer(Bool(true))
	require.False(t, ok)
}
