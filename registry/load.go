package registry

import (
	"fmt"
	"os"
	"strings"

	"fortio.org/safecast"
	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Versioned wrapper keys, newest first. Documents without a wrapper carry
// "types" and "spec" at the top level.
var wrapperKeys = []string{"V3", "V2", "V1"}

// LoadFile reads and loads a metadata document from disk.
func LoadFile(path string) (*Registry, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "registry: reading %s", path)
	}
	return Load(doc)
}

// Load parses and validates a metadata document. Keys this package does not
// use are skipped, so documents from newer tool versions still load as long
// as the fields read here keep their meaning.
func Load(doc []byte) (*Registry, error) {
	abi, version, err := locateABI(doc)
	if err != nil {
		return nil, err
	}

	l := &loader{
		reg: &Registry{
			types: make(map[TypeID]*Type),
		},
		oneBased: version == "V1" || version == "V2",
	}

	if err := l.parseTypes(abi); err != nil {
		return nil, err
	}
	if err := l.parseSpec(abi); err != nil {
		return nil, err
	}
	l.parseInfo(doc, version)

	if err := validate(l.reg); err != nil {
		return nil, err
	}
	return l.reg, nil
}

func locateABI(doc []byte) ([]byte, string, error) {
	if _, dt, _, err := jsonparser.Get(doc); err != nil || dt != jsonparser.Object {
		return nil, "", schemaErrorf("", "document is not a JSON object")
	}
	for _, key := range wrapperKeys {
		if v, dt, _, _ := jsonparser.Get(doc, key); dt == jsonparser.Object {
			return v, key, nil
		}
	}
	if _, dt, _, _ := jsonparser.Get(doc, "types"); dt == jsonparser.Array {
		return doc, versionString(doc), nil
	}
	return nil, "", schemaErrorf("", "no types section")
}

func versionString(doc []byte) string {
	for _, key := range []string{"version", "metadataVersion"} {
		v, dt, _, _ := jsonparser.Get(doc, key)
		switch dt {
		case jsonparser.String:
			s, _ := jsonparser.ParseString(v)
			return s
		case jsonparser.Number:
			return string(v)
		}
	}
	return ""
}

type loader struct {
	reg      *Registry
	oneBased bool
}

// eachArray iterates the array at keys. A missing key is not an error.
func eachArray(data []byte, path string, fn func(i int, v []byte, dt jsonparser.ValueType) error, keys ...string) error {
	v, dt, _, _ := jsonparser.Get(data, keys...)
	switch dt {
	case jsonparser.NotExist, jsonparser.Null:
		return nil
	case jsonparser.Array:
	default:
		return schemaErrorf(path, "expected array, found %s", dt)
	}

	var (
		i    int
		ferr error
	)
	_, err := jsonparser.ArrayEach(v, func(elem []byte, edt jsonparser.ValueType, _ int, err error) {
		if ferr != nil {
			return
		}
		if err != nil {
			ferr = schemaErrorf(path, "%v", err)
			return
		}
		ferr = fn(i, elem, edt)
		i++
	})
	if ferr != nil {
		return ferr
	}
	if err != nil {
		return schemaErrorf(path, "%v", err)
	}
	return nil
}

func getString(data []byte, keys ...string) (string, bool) {
	v, dt, _, _ := jsonparser.Get(data, keys...)
	if dt != jsonparser.String {
		return "", false
	}
	s, err := jsonparser.ParseString(v)
	return s, err == nil
}

func getStrings(data []byte, path string, keys ...string) ([]string, error) {
	var out []string
	err := eachArray(data, path, func(i int, v []byte, dt jsonparser.ValueType) error {
		if dt != jsonparser.String {
			return schemaErrorf(fmt.Sprintf("%s[%d]", path, i), "expected string, found %s", dt)
		}
		s, err := jsonparser.ParseString(v)
		if err != nil {
			return schemaErrorf(fmt.Sprintf("%s[%d]", path, i), "%v", err)
		}
		out = append(out, s)
		return nil
	}, keys...)
	return out, err
}

func getBool(data []byte, keys ...string) bool {
	b, err := jsonparser.GetBoolean(data, keys...)
	return err == nil && b
}

func parseUint32(v []byte, dt jsonparser.ValueType, path string) (uint32, error) {
	if dt != jsonparser.Number {
		return 0, schemaErrorf(path, "expected number, found %s", dt)
	}
	n, err := jsonparser.ParseInt(v)
	if err != nil {
		return 0, schemaErrorf(path, "%v", err)
	}
	u, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0, schemaErrorf(path, "%d out of range", n)
	}
	return u, nil
}

func getUint32(data []byte, path string, keys ...string) (uint32, bool, error) {
	v, dt, _, _ := jsonparser.Get(data, keys...)
	if dt == jsonparser.NotExist || dt == jsonparser.Null {
		return 0, false, nil
	}
	u, err := parseUint32(v, dt, path+"."+strings.Join(keys, "."))
	return u, true, err
}

// typeRef reads a type reference, which is either a bare number or an
// object {"type": N, "displayName": [...]}.
func typeRef(data []byte, path string, keys ...string) (TypeID, []string, error) {
	v, dt, _, _ := jsonparser.Get(data, keys...)
	p := path + "." + strings.Join(keys, ".")
	switch dt {
	case jsonparser.Number:
		u, err := parseUint32(v, dt, p)
		return TypeID(u), nil, err
	case jsonparser.Object:
		u, ok, err := getUint32(v, p, "type")
		if err != nil {
			return 0, nil, err
		}
		if !ok {
			return 0, nil, schemaErrorf(p, "missing type")
		}
		display, err := getStrings(v, p+".displayName", "displayName")
		return TypeID(u), display, err
	default:
		return 0, nil, schemaErrorf(p, "missing type reference")
	}
}

// label reads "label", falling back to "name". Older documents store the
// name as a list of path segments.
func label(data []byte, path string) (string, error) {
	if s, ok := getString(data, "label"); ok {
		return s, nil
	}
	if s, ok := getString(data, "name"); ok {
		return s, nil
	}
	parts, err := getStrings(data, path+".name", "name")
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", schemaErrorf(path, "missing label")
	}
	return strings.Join(parts, "::"), nil
}

func (l *loader) parseTypes(abi []byte) error {
	return eachArray(abi, "types", func(i int, entry []byte, dt jsonparser.ValueType) error {
		path := fmt.Sprintf("types[%d]", i)
		if dt != jsonparser.Object {
			return schemaErrorf(path, "expected object, found %s", dt)
		}

		id, ok, err := getUint32(entry, path, "id")
		if err != nil {
			return err
		}
		if !ok {
			n := i
			if l.oneBased {
				n++
			}
			if id, err = safecast.Conv[uint32](n); err != nil {
				return schemaErrorf(path, "too many types")
			}
		}

		body := entry
		if v, bdt, _, _ := jsonparser.Get(entry, "type"); bdt == jsonparser.Object {
			body = v
			path += ".type"
		}

		t := &Type{ID: TypeID(id)}
		if t.Path, err = getStrings(body, path+".path", "path"); err != nil {
			return err
		}
		if t.Docs, err = getStrings(body, path+".docs", "docs"); err != nil {
			return err
		}
		if t.Params, err = parseParams(body, path+".params"); err != nil {
			return err
		}
		if t.Def, err = parseDef(body, path+".def"); err != nil {
			return err
		}

		if _, dup := l.reg.types[t.ID]; dup {
			return schemaErrorf(path, "duplicate type id %d", t.ID)
		}
		l.reg.types[t.ID] = t
		l.reg.order = append(l.reg.order, t.ID)
		return nil
	}, "types")
}

func parseParams(body []byte, path string) ([]TypeParam, error) {
	var params []TypeParam
	err := eachArray(body, path, func(i int, v []byte, dt jsonparser.ValueType) error {
		p := fmt.Sprintf("%s[%d]", path, i)
		switch dt {
		case jsonparser.Number:
			u, err := parseUint32(v, dt, p)
			if err != nil {
				return err
			}
			id := TypeID(u)
			params = append(params, TypeParam{Type: &id})
		case jsonparser.Object:
			name, _ := getString(v, "name")
			param := TypeParam{Name: name}
			u, ok, err := getUint32(v, p, "type")
			if err != nil {
				return err
			}
			if ok {
				id := TypeID(u)
				param.Type = &id
			}
			params = append(params, param)
		default:
			return schemaErrorf(p, "expected type parameter, found %s", dt)
		}
		return nil
	}, "params")
	return params, err
}

func parseDef(body []byte, path string) (TypeDef, error) {
	var (
		def   TypeDef
		count int
	)
	v, dt, _, _ := jsonparser.Get(body, "def")
	if dt != jsonparser.Object {
		return def, schemaErrorf(path, "missing definition")
	}

	err := jsonparser.ObjectEach(v, func(key, value []byte, vdt jsonparser.ValueType, _ int) error {
		count++
		if count > 1 {
			return schemaErrorf(path, "definition has more than one kind")
		}
		kind := string(key)
		p := path + "." + kind
		var err error
		switch kind {
		case "primitive":
			def.Kind = KindPrimitive
			if vdt != jsonparser.String {
				return schemaErrorf(p, "expected primitive name")
			}
			prim, ok := ParsePrimitive(string(value))
			if !ok {
				return schemaErrorf(p, "unknown primitive %q", value)
			}
			def.Primitive = prim
		case "composite":
			def.Kind = KindComposite
			def.Fields, err = parseFields(value, p+".fields")
		case "variant":
			def.Kind = KindVariant
			def.Cases, err = parseCases(value, p+".variants")
		case "sequence", "compact":
			def.Kind = KindSequence
			if kind == "compact" {
				def.Kind = KindCompact
			}
			var ok bool
			var u uint32
			u, ok, err = getUint32(value, p, "type")
			if err == nil && !ok {
				err = schemaErrorf(p, "missing element type")
			}
			def.Elem = TypeID(u)
		case "array":
			def.Kind = KindArray
			var u, n uint32
			var okT, okN bool
			if u, okT, err = getUint32(value, p, "type"); err != nil {
				return err
			}
			if n, okN, err = getUint32(value, p, "len"); err != nil {
				return err
			}
			if !okT || !okN {
				return schemaErrorf(p, "array needs type and len")
			}
			def.Elem, def.Len = TypeID(u), n
		case "tuple":
			def.Kind = KindTuple
			def.Elems = []TypeID{}
			if vdt != jsonparser.Array {
				return schemaErrorf(p, "expected array of type ids")
			}
			err = eachArray(body, p, func(i int, ev []byte, edt jsonparser.ValueType) error {
				u, err := parseUint32(ev, edt, fmt.Sprintf("%s[%d]", p, i))
				def.Elems = append(def.Elems, TypeID(u))
				return err
			}, "def", "tuple")
		case "phantom":
			// Zero-sized marker from older documents; encodes to nothing.
			def.Kind = KindTuple
			def.Elems = []TypeID{}
		default:
			def.Kind = KindUnsupported
			def.Raw = kind
		}
		return err
	})
	if err != nil {
		return def, err
	}
	if count == 0 {
		return def, schemaErrorf(path, "empty definition")
	}
	return def, nil
}

func parseFields(data []byte, path string) ([]Field, error) {
	var fields []Field
	err := eachArray(data, path, func(i int, v []byte, dt jsonparser.ValueType) error {
		p := fmt.Sprintf("%s[%d]", path, i)
		if dt != jsonparser.Object {
			return schemaErrorf(p, "expected field object")
		}
		u, ok, err := getUint32(v, p, "type")
		if err != nil {
			return err
		}
		if !ok {
			return schemaErrorf(p, "missing field type")
		}
		name, _ := getString(v, "name")
		typeName, _ := getString(v, "typeName")
		fields = append(fields, Field{Name: name, Type: TypeID(u), TypeName: typeName})
		return nil
	}, "fields")
	return fields, err
}

func parseCases(data []byte, path string) ([]VariantCase, error) {
	var cases []VariantCase
	err := eachArray(data, path, func(i int, v []byte, dt jsonparser.ValueType) error {
		p := fmt.Sprintf("%s[%d]", path, i)
		if dt != jsonparser.Object {
			return schemaErrorf(p, "expected variant object")
		}
		name, ok := getString(v, "name")
		if !ok || name == "" {
			return schemaErrorf(p, "variant without name")
		}
		c := VariantCase{Name: name}

		idx, found, err := getUint32(v, p, "index")
		if err != nil {
			return err
		}
		if !found {
			if idx, found, err = getUint32(v, p, "discriminant"); err != nil {
				return err
			}
		}
		if !found {
			idx = uint32(i)
		}
		if c.Index, err = safecast.Conv[uint8](idx); err != nil {
			return schemaErrorf(p, "discriminant %d does not fit in a byte", idx)
		}

		if c.Fields, err = parseFields(v, p+".fields"); err != nil {
			return err
		}
		if c.Docs, err = getStrings(v, p+".docs", "docs"); err != nil {
			return err
		}
		cases = append(cases, c)
		return nil
	}, "variants")
	return cases, err
}

func (l *loader) parseSpec(abi []byte) error {
	spec, dt, _, _ := jsonparser.Get(abi, "spec")
	if dt != jsonparser.Object {
		return schemaErrorf("spec", "missing spec section")
	}

	sections := []struct {
		key  string
		kind CallableKind
	}{
		{"constructors", Constructor},
		{"messages", Message},
		{"events", Event},
	}
	for _, s := range sections {
		err := eachArray(spec, "spec."+s.key, func(i int, v []byte, dt jsonparser.ValueType) error {
			path := fmt.Sprintf("spec.%s[%d]", s.key, i)
			if dt != jsonparser.Object {
				return schemaErrorf(path, "expected object")
			}
			item, err := parseCallable(v, path, s.kind, i)
			if err != nil {
				return err
			}
			l.reg.callables[s.kind] = append(l.reg.callables[s.kind], item)
			return nil
		}, s.key)
		if err != nil {
			return err
		}
	}

	env, err := parseEnvironment(spec)
	if err != nil {
		return err
	}
	l.reg.environment = env
	return nil
}

func parseCallable(v []byte, path string, kind CallableKind, index int) (*CallableItem, error) {
	name, err := label(v, path)
	if err != nil {
		return nil, err
	}
	item := &CallableItem{
		Kind:    kind,
		Name:    name,
		Mutates: getBool(v, "mutates"),
		Payable: getBool(v, "payable"),
	}
	if item.Docs, err = getStrings(v, path+".docs", "docs"); err != nil {
		return nil, err
	}

	if sel, ok := getString(v, "selector"); ok {
		b, err := hexutil.Decode(sel)
		if err != nil {
			return nil, schemaErrorf(path+".selector", "%v", err)
		}
		item.Selector = b
	} else if kind == Event {
		b, err := safecast.Conv[uint8](index)
		if err != nil {
			return nil, schemaErrorf(path, "too many events")
		}
		item.Selector = []byte{b}
	} else {
		item.Selector = DeriveSelector(name)
	}

	err = eachArray(v, path+".args", func(i int, av []byte, dt jsonparser.ValueType) error {
		p := fmt.Sprintf("%s.args[%d]", path, i)
		if dt != jsonparser.Object {
			return schemaErrorf(p, "expected argument object")
		}
		argName, err := label(av, p)
		if err != nil {
			return err
		}
		id, display, err := typeRef(av, p, "type")
		if err != nil {
			return err
		}
		item.Args = append(item.Args, Arg{
			Name:        argName,
			Type:        id,
			DisplayName: display,
			Indexed:     getBool(av, "indexed"),
		})
		return nil
	}, "args")
	if err != nil {
		return nil, err
	}

	for _, key := range []string{"returnType", "return_type"} {
		_, dt, _, _ := jsonparser.Get(v, key)
		if dt == jsonparser.NotExist || dt == jsonparser.Null {
			continue
		}
		id, _, err := typeRef(v, path, key)
		if err != nil {
			return nil, err
		}
		item.ReturnType = &id
		break
	}
	return item, nil
}

type envKey struct {
	camel, snake string
	dst          *TypeID
}

func parseEnvironment(spec []byte) (*Environment, error) {
	env, dt, _, _ := jsonparser.Get(spec, "environment")
	if dt != jsonparser.Object {
		return nil, nil
	}
	out := &Environment{}
	keys := []envKey{
		{"accountId", "account_id", &out.AccountID},
		{"balance", "balance", &out.Balance},
		{"hash", "hash", &out.Hash},
		{"timestamp", "timestamp", &out.Timestamp},
		{"blockNumber", "block_number", &out.BlockNumber},
	}
	for _, k := range keys {
		key := k.camel
		if _, kdt, _, _ := jsonparser.Get(env, key); kdt == jsonparser.NotExist {
			key = k.snake
		}
		if _, kdt, _, _ := jsonparser.Get(env, key); kdt == jsonparser.NotExist {
			// Partial environments are treated as absent.
			return nil, nil
		}
		id, _, err := typeRef(env, "spec.environment", key)
		if err != nil {
			return nil, err
		}
		*k.dst = id
	}
	return out, nil
}

func (l *loader) parseInfo(doc []byte, version string) {
	info := Info{MetadataVersion: version}
	info.ContractName, _ = getString(doc, "contract", "name")
	info.ContractVersion, _ = getString(doc, "contract", "version")
	info.Authors, _ = getStrings(doc, "contract.authors", "contract", "authors")
	info.Language, _ = getString(doc, "source", "language")
	info.Compiler, _ = getString(doc, "source", "compiler")
	if h, ok := getString(doc, "source", "hash"); ok {
		if b, err := hexutil.Decode(h); err == nil && len(b) == common.HashLength {
			info.CodeHash = common.BytesToHash(b)
			info.HasCodeHash = true
		}
	}
	if w, ok := getString(doc, "source", "wasm"); ok {
		if b, err := hexutil.Decode(w); err == nil {
			info.Wasm = b
		}
	}
	l.reg.info = info
}
