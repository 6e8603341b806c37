package registry

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *Registry {
	t.Helper()
	doc, err := os.ReadFile("../testdata/erc20.json")
	require.NoError(t, err)
	reg, err := Load(doc)
	require.NoError(t, err)
	return reg
}

// minimalDoc wraps a types array and a messages array into a flat document.
func minimalDoc(types, messages string) []byte {
	return []byte(`{"version": "4", "types": ` + types + `, "spec": {"constructors": [], "messages": ` + messages + `, "events": []}}`)
}

func TestLoadFixture(t *testing.T) {
	reg := loadFixture(t)

	t.Run("types", func(t *testing.T) {
		require.Equal(t, 25, reg.Len())

		account := reg.MustResolve(2)
		require.Equal(t, KindComposite, account.Def.Kind)
		require.Equal(t, "AccountId", account.Name())
		require.Equal(t, "ink_primitives::types::AccountId", account.PathString())

		arr := reg.MustResolve(1)
		require.Equal(t, KindArray, arr.Def.Kind)
		require.Equal(t, uint32(32), arr.Def.Len)
		require.Equal(t, TypeID(0), arr.Def.Elem)

		compact := reg.MustResolve(4)
		require.Equal(t, KindCompact, compact.Def.Kind)

		errType := reg.MustResolve(11)
		c, ok := errType.Def.CaseByName("Custom")
		require.True(t, ok)
		require.Equal(t, uint8(7), c.Index)
		require.True(t, Named(c.Fields))

		_, ok = errType.Def.CaseByIndex(2)
		require.False(t, ok)

		opt := reg.MustResolve(9)
		require.Len(t, opt.Params, 1)
		require.Equal(t, "T", opt.Params[0].Name)
	})

	t.Run("callables", func(t *testing.T) {
		msgs := reg.Callables(Message)
		require.Len(t, msgs, 8)

		transfer, err := reg.FindCallable(Message, "transfer", 2)
		require.NoError(t, err)
		require.Equal(t, []byte{0x84, 0xa1, 0x5d, 0xa1}, transfer.Selector)
		require.Equal(t, "0x84a15da1", transfer.SelectorHex())
		require.Equal(t, "transfer(to: AccountId, amount: Compact)", transfer.Signature())
		require.True(t, transfer.Mutates)
		require.NotNil(t, transfer.ReturnType)
		require.Equal(t, TypeID(10), *transfer.ReturnType)

		setPoints, err := reg.FindCallable(Message, "set_points", AnyArity)
		require.NoError(t, err)
		require.Nil(t, setPoints.ReturnType)
		require.True(t, setPoints.Payable)

		def, err := reg.FindCallable(Constructor, "default", 0)
		require.NoError(t, err)
		require.Equal(t, DeriveSelector("default"), def.Selector)

		events := reg.Callables(Event)
		require.Len(t, events, 2)
		require.Equal(t, []byte{0}, events[0].Selector)
		require.Equal(t, []byte{1}, events[1].Selector)
		require.True(t, events[0].Args[0].Indexed)
		require.False(t, events[0].Args[2].Indexed)
	})

	t.Run("trait qualified names", func(t *testing.T) {
		approve, err := reg.FindCallable(Message, "approve", 2)
		require.NoError(t, err)
		require.Equal(t, "PSP22::approve", approve.Name)

		exact, err := reg.FindCallable(Message, "PSP22::approve", 2)
		require.NoError(t, err)
		require.Same(t, approve, exact)
	})

	t.Run("selector lookup", func(t *testing.T) {
		item, err := reg.CallableBySelector(Message, []byte{0x84, 0xa1, 0x5d, 0xa1, 0xff})
		require.NoError(t, err)
		require.Equal(t, "transfer", item.Name)

		_, err = reg.CallableBySelector(Message, []byte{0, 0, 0, 0})
		require.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("info", func(t *testing.T) {
		info := reg.Info()
		require.Equal(t, "4", info.MetadataVersion)
		require.Equal(t, "erc20", info.ContractName)
		require.Equal(t, "4.3.0", info.ContractVersion)
		require.Equal(t, "ink! 4.3.0", info.Language)
		require.True(t, info.HasCodeHash)
		require.Equal(t, "0x3b1e2a9d0c2f4e6b8a7d5c3b1a09f8e7d6c5b4a39281706f5e4d3c2b1a098f7e", info.CodeHash.Hex())
	})

	t.Run("environment", func(t *testing.T) {
		env := reg.Environment()
		require.NotNil(t, env)
		require.Equal(t, TypeID(2), env.AccountID)
		require.Equal(t, TypeID(19), env.BlockNumber)
		require.NoError(t, reg.CompareEnvironment(reg))
	})

	t.Run("unwrap newtype", func(t *testing.T) {
		inner, err := reg.Unwrap(2)
		require.NoError(t, err)
		require.Equal(t, KindArray, inner.Def.Kind)
	})
}

func TestFindCallableErrors(t *testing.T) {
	doc := minimalDoc(
		`[{"id": 0, "type": {"def": {"primitive": "u8"}}}, {"id": 1, "type": {"def": {"primitive": "bool"}}}]`,
		`[
			{"label": "get", "selector": "0x00000001", "args": [], "returnType": {"type": 0}},
			{"label": "get", "selector": "0x00000002", "args": [{"label": "a", "type": {"type": 0}}], "returnType": {"type": 0}},
			{"label": "peek", "selector": "0x00000003", "args": [], "returnType": {"type": 0}},
			{"label": "peek", "selector": "0x00000004", "args": [], "returnType": {"type": 1}}
		]`,
	)
	reg, err := Load(doc)
	require.NoError(t, err)

	t.Run("overload by arity", func(t *testing.T) {
		item, err := reg.FindCallable(Message, "get", 1)
		require.NoError(t, err)
		require.Equal(t, []byte{0, 0, 0, 2}, item.Selector)

		item, err = reg.FindCallable(Message, "get", 0)
		require.NoError(t, err)
		require.Equal(t, []byte{0, 0, 0, 1}, item.Selector)
	})

	t.Run("any arity with overloads is ambiguous", func(t *testing.T) {
		_, err := reg.FindCallable(Message, "get", AnyArity)
		require.True(t, errors.Is(err, ErrAmbiguous))
	})

	t.Run("differing only in return type is ambiguous", func(t *testing.T) {
		_, err := reg.FindCallable(Message, "peek", 0)
		require.True(t, errors.Is(err, ErrAmbiguous))

		var amb *AmbiguousError
		require.True(t, errors.As(err, &amb))
		require.Len(t, amb.Candidates, 2)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := reg.FindCallable(Message, "missing", AnyArity)
		require.True(t, errors.Is(err, ErrNotFound))

		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		require.Contains(t, nf.Available, "get(a)")
		require.Contains(t, err.Error(), `message "missing" not found`)
	})

	t.Run("wrong arity", func(t *testing.T) {
		_, err := reg.FindCallable(Message, "get", 3)
		require.True(t, errors.Is(err, ErrNotFound))
		require.Contains(t, err.Error(), "with 3 argument(s)")
	})
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name   string
		doc    []byte
		reason string
	}{
		{
			name:   "not an object",
			doc:    []byte(`[1, 2]`),
			reason: "not a JSON object",
		},
		{
			name:   "no types",
			doc:    []byte(`{"spec": {}}`),
			reason: "no types section",
		},
		{
			name:   "dangling field reference",
			doc:    minimalDoc(`[{"id": 0, "type": {"def": {"composite": {"fields": [{"name": "a", "type": 9}]}}}}]`, `[]`),
			reason: "undefined type 9",
		},
		{
			name:   "dangling sequence element",
			doc:    minimalDoc(`[{"id": 0, "type": {"def": {"sequence": {"type": 4}}}}]`, `[]`),
			reason: "undefined type 4",
		},
		{
			name: "dangling argument",
			doc: minimalDoc(`[{"id": 0, "type": {"def": {"primitive": "u8"}}}]`,
				`[{"label": "m", "selector": "0x01020304", "args": [{"label": "a", "type": {"type": 5}}]}]`),
			reason: "undefined type 5",
		},
		{
			name: "duplicate discriminant",
			doc: minimalDoc(`[{"id": 0, "type": {"def": {"variant": {"variants": [
				{"name": "A", "index": 3}, {"name": "B", "index": 3}]}}}}]`, `[]`),
			reason: "share discriminant 3",
		},
		{
			name: "duplicate variant name",
			doc: minimalDoc(`[{"id": 0, "type": {"def": {"variant": {"variants": [
				{"name": "A", "index": 0}, {"name": "A", "index": 1}]}}}}]`, `[]`),
			reason: `duplicate variant name "A"`,
		},
		{
			name: "discriminant out of range",
			doc: minimalDoc(`[{"id": 0, "type": {"def": {"variant": {"variants": [
				{"name": "A", "index": 256}]}}}}]`, `[]`),
			reason: "does not fit in a byte",
		},
		{
			name: "duplicate field name",
			doc: minimalDoc(`[{"id": 0, "type": {"def": {"primitive": "u8"}}},
				{"id": 1, "type": {"def": {"composite": {"fields": [{"name": "a", "type": 0}, {"name": "a", "type": 0}]}}}}]`, `[]`),
			reason: `duplicate field name "a"`,
		},
		{
			name: "mixed named and unnamed fields",
			doc: minimalDoc(`[{"id": 0, "type": {"def": {"primitive": "u8"}}},
				{"id": 1, "type": {"def": {"composite": {"fields": [{"name": "a", "type": 0}, {"type": 0}]}}}}]`, `[]`),
			reason: "mixes named and unnamed",
		},
		{
			name: "infinitely sized composite",
			doc: minimalDoc(`[{"id": 0, "type": {"def": {"composite": {"fields": [{"name": "next", "type": 1}]}}}},
				{"id": 1, "type": {"def": {"tuple": [0]}}}]`, `[]`),
			reason: "no finite encoding",
		},
		{
			name: "compact of signed integer",
			doc: minimalDoc(`[{"id": 0, "type": {"def": {"primitive": "i32"}}},
				{"id": 1, "type": {"def": {"compact": {"type": 0}}}}]`, `[]`),
			reason: "compact requires an unsigned integer",
		},
		{
			name:   "unknown primitive",
			doc:    minimalDoc(`[{"id": 0, "type": {"def": {"primitive": "f32"}}}]`, `[]`),
			reason: `unknown primitive "f32"`,
		},
		{
			name:   "duplicate type id",
			doc:    minimalDoc(`[{"id": 0, "type": {"def": {"primitive": "u8"}}}, {"id": 0, "type": {"def": {"primitive": "u16"}}}]`, `[]`),
			reason: "duplicate type id 0",
		},
		{
			name: "short selector",
			doc: minimalDoc(`[{"id": 0, "type": {"def": {"primitive": "u8"}}}]`,
				`[{"label": "m", "selector": "0x0102", "args": []}]`),
			reason: "selector must be 4 bytes",
		},
		{
			name: "duplicate selector",
			doc: minimalDoc(`[{"id": 0, "type": {"def": {"primitive": "u8"}}}]`,
				`[{"label": "a", "selector": "0x01020304", "args": []}, {"label": "b", "selector": "0x01020304", "args": []}]`),
			reason: "already used",
		},
		{
			name:   "missing spec",
			doc:    []byte(`{"types": []}`),
			reason: "missing spec section",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.doc)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrSchema), "expected schema error, got %v", err)

			var se *SchemaError
			require.True(t, errors.As(err, &se))
			require.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestLoadIsForwardCompatible(t *testing.T) {
	doc := []byte(`{
		"future": {"anything": [1, 2, 3]},
		"version": 5,
		"types": [
			{"id": 0, "type": {"def": {"primitive": "u8"}, "newKey": true}, "extra": null},
			{"id": 1, "type": {"def": {"bitSequence": {"bit_store_type": 0, "bit_order_type": 0}}}}
		],
		"spec": {"constructors": [], "messages": [{"label": "m", "selector": "0x01020304", "args": [], "returnType": {"type": 1}, "default": false}], "events": [], "newSection": {}}
	}`)
	reg, err := Load(doc)
	require.NoError(t, err)
	require.Equal(t, "5", reg.Info().MetadataVersion)

	bits := reg.MustResolve(1)
	require.Equal(t, KindUnsupported, bits.Def.Kind)
	require.Equal(t, "bitSequence", bits.Def.Raw)
	require.Nil(t, reg.Environment())
}

func TestLoadLegacyLayouts(t *testing.T) {
	t.Run("V3 wrapper", func(t *testing.T) {
		doc := []byte(`{"metadataVersion": "0.1.0", "V3": {
			"types": [{"id": 0, "type": {"def": {"primitive": "bool"}}}],
			"spec": {"constructors": [], "messages": [{"label": "get", "selector": "0x2f865bd9", "args": [], "returnType": {"type": 0, "displayName": ["bool"]}}], "events": []}
		}}`)
		reg, err := Load(doc)
		require.NoError(t, err)
		require.Equal(t, "V3", reg.Info().MetadataVersion)
		_, err = reg.FindCallable(Message, "get", 0)
		require.NoError(t, err)
	})

	t.Run("V1 one-based ids and name arrays", func(t *testing.T) {
		doc := []byte(`{"V1": {
			"types": [{"def": {"primitive": "u32"}}, {"def": {"sequence": {"type": 1}}}],
			"spec": {"constructors": [{"name": ["new"], "selector": "0xd183512b", "args": [{"name": "init", "type": {"type": 2}}]}], "messages": [], "events": []}
		}}`)
		reg, err := Load(doc)
		require.NoError(t, err)

		seq := reg.MustResolve(2)
		require.Equal(t, KindSequence, seq.Def.Kind)
		require.Equal(t, TypeID(1), seq.Def.Elem)

		ctor, err := reg.FindCallable(Constructor, "new", 1)
		require.NoError(t, err)
		require.Equal(t, "init", ctor.Args[0].Name)
	})

	t.Run("variant without explicit index uses position", func(t *testing.T) {
		doc := minimalDoc(`[{"id": 0, "type": {"def": {"variant": {"variants": [{"name": "A"}, {"name": "B"}]}}}}]`, `[]`)
		reg, err := Load(doc)
		require.NoError(t, err)
		b, ok := reg.MustResolve(0).Def.CaseByName("B")
		require.True(t, ok)
		require.Equal(t, uint8(1), b.Index)
	})
}

func TestCompareEnvironment(t *testing.T) {
	reg := loadFixture(t)

	doc, err := os.ReadFile("../testdata/erc20.json")
	require.NoError(t, err)
	// Widen the block number type of a second copy.
	changed := strings.Replace(string(doc), `{"id": 19, "type": {"def": {"primitive": "u32"}}}`, `{"id": 19, "type": {"def": {"primitive": "u64"}}}`, 1)
	other, err := Load([]byte(changed))
	require.NoError(t, err)

	err = reg.CompareEnvironment(other)
	require.True(t, errors.Is(err, ErrEnvironmentMismatch))
	require.Contains(t, err.Error(), "block_number")

	noEnv, err := Load(minimalDoc(`[]`, `[]`))
	require.NoError(t, err)
	require.Error(t, reg.CompareEnvironment(noEnv))
}

// dagDoc builds a chain of composites where each level holds the previous
// level twice, plus a sequence of the top level. Every environment entry
// points at the top.
func dagDoc(levels int, leaf string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `{"id": 0, "type": {"def": {"primitive": %q}}}`, leaf)
	for i := 1; i <= levels; i++ {
		fmt.Fprintf(&b, `, {"id": %d, "type": {"def": {"composite": {"fields": [{"type": %d}, {"type": %d}]}}}}`, i, i-1, i-1)
	}
	fmt.Fprintf(&b, `, {"id": %d, "type": {"def": {"sequence": {"type": %d}}}}`, levels+1, levels)
	ref := fmt.Sprintf(`{"type": %d, "displayName": ["T"]}`, levels)
	return []byte(`{"version": "4", "types": [` + b.String() + `], "spec": {"constructors": [], "messages": [], "events": [], "environment": {` +
		`"accountId": ` + ref + `, "balance": ` + ref + `, "hash": ` + ref + `, "timestamp": ` + ref + `, "blockNumber": ` + ref + `}}}`)
}

func TestCompareEnvironmentSharedSubtypes(t *testing.T) {
	a, err := Load(dagDoc(40, "u8"))
	require.NoError(t, err)
	b, err := Load(dagDoc(40, "u8"))
	require.NoError(t, err)
	c, err := Load(dagDoc(40, "u16"))
	require.NoError(t, err)

	done := make(chan error, 2)
	go func() {
		done <- a.CompareEnvironment(b)
		done <- a.CompareEnvironment(c)
	}()
	for _, want := range []bool{true, false} {
		select {
		case err := <-done:
			if want {
				require.NoError(t, err)
			} else {
				require.True(t, errors.Is(err, ErrEnvironmentMismatch))
			}
		case <-time.After(5 * time.Second):
			t.Fatal("environment comparison did not finish")
		}
	}
}

func TestCompareEnvironmentRecursive(t *testing.T) {
	types := `[
		{"id": 0, "type": {"def": {"primitive": "u8"}}},
		{"id": 1, "type": {"path": ["Tree"], "def": {"composite": {"fields": [{"name": "v", "type": 0}, {"name": "kids", "type": 2}]}}}},
		{"id": 2, "type": {"def": {"sequence": {"type": 1}}}}
	]`
	ref := `{"type": 1, "displayName": ["Tree"]}`
	doc := []byte(`{"version": "4", "types": ` + types + `, "spec": {"constructors": [], "messages": [], "events": [], "environment": {` +
		`"accountId": ` + ref + `, "balance": ` + ref + `, "hash": ` + ref + `, "timestamp": ` + ref + `, "blockNumber": ` + ref + `}}}`)
	a, err := Load(doc)
	require.NoError(t, err)
	b, err := Load(doc)
	require.NoError(t, err)
	require.NoError(t, a.CompareEnvironment(b))
}

func TestMinSize(t *testing.T) {
	reg := loadFixture(t)
	tests := []struct {
		name string
		id   TypeID
		want int
	}{
		{"u8", 0, 1},
		{"byte array", 1, 32},
		{"newtype", 2, 32},
		{"u128", 3, 16},
		{"compact", 4, 1},
		{"str", 6, 1},
		{"sequence", 7, 1},
		{"unit", 8, 0},
		{"variant", 9, 1},
		{"struct", 12, 8},
		{"tuple", 15, 17},
		{"char", 21, 4},
		{"empty struct", 24, 0},
		{"unknown", 999, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, reg.MinSize(tt.id))
		})
	}

	t.Run("self reference through an empty array", func(t *testing.T) {
		reg, err := Load(minimalDoc(`[
			{"id": 0, "type": {"def": {"composite": {"fields": [{"name": "none", "type": 1}, {"name": "v", "type": 2}]}}}},
			{"id": 1, "type": {"def": {"array": {"len": 0, "type": 0}}}},
			{"id": 2, "type": {"def": {"primitive": "u16"}}}
		]`, `[]`))
		require.NoError(t, err)
		require.Equal(t, 2, reg.MinSize(0))
		require.Equal(t, 0, reg.MinSize(1))
	})

	t.Run("shared subtypes are capped", func(t *testing.T) {
		deep, err := Load(dagDoc(40, "u8"))
		require.NoError(t, err)
		require.Equal(t, 1<<10, deep.MinSize(10))
		require.Equal(t, maxMinSize, deep.MinSize(40))
		require.Equal(t, 1, deep.MinSize(41))
	})
}

func TestResolveUnknown(t *testing.T) {
	reg := loadFixture(t)
	_, err := reg.Resolve(999)
	require.True(t, errors.Is(err, ErrUnknownType))
	require.Panics(t, func() { reg.MustResolve(999) })
}

func TestPrimitive(t *testing.T) {
	tests := []struct {
		name   string
		bits   int
		signed bool
		int    bool
	}{
		{"u8", 8, false, true},
		{"i128", 128, true, true},
		{"u256", 256, false, true},
		{"char", 32, false, false},
		{"bool", 8, false, false},
		{"str", 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ParsePrimitive(tt.name)
			require.True(t, ok)
			require.Equal(t, tt.name, p.String())
			require.Equal(t, tt.bits, p.Bits())
			require.Equal(t, tt.signed, p.Signed())
			require.Equal(t, tt.int, p.IsInteger())
		})
	}
}
