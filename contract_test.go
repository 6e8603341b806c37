package transcode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/branched-services/go-ink-transcode/registry"
	"github.com/branched-services/go-ink-transcode/value"
)

const fixtureHash = "0x3b1e2a9d0c2f4e6b8a7d5c3b1a09f8e7d6c5b4a39281706f5e4d3c2b1a098f7e"

var testCode = []byte("\x00asm\x01\x00\x00\x00")

// writeBundle writes the fixture metadata to dir/name with its code hash
// replaced by hash and, if wasm is set, the code embedded.
func writeBundle(t *testing.T, dir, name, hash string, wasm []byte) string {
	t.Helper()
	doc, err := os.ReadFile("testdata/erc20.json")
	require.NoError(t, err)

	source := `"hash": "` + hash + `"`
	if wasm != nil {
		source += `, "wasm": "` + hexutil.Encode(wasm) + `"`
	}
	text := strings.Replace(string(doc), `"hash": "`+fixtureHash+`"`, source, 1)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func codeHash(code []byte) string {
	sum := blake2b.Sum256(code)
	return hexutil.Encode(sum[:])
}

func TestNewContract(t *testing.T) {
	reg := testRegistry(t)

	c := NewContract(reg, testCode)
	assert.Same(t, reg, c.Registry())
	assert.Same(t, reg, c.Transcoder().Registry())
	assert.Equal(t, testCode, c.Code())

	hash, err := c.CodeHash()
	require.NoError(t, err)
	assert.Equal(t, codeHash(testCode), hash.Hex())
}

func TestContractWithoutCode(t *testing.T) {
	c := NewContract(testRegistry(t), nil)
	assert.Nil(t, c.Code())

	_, err := c.CodeHash()
	require.ErrorIs(t, err, ErrNoCode)
	require.ErrorIs(t, c.Verify(), ErrNoCode)
}

func TestContractVerify(t *testing.T) {
	t.Run("mismatch", func(t *testing.T) {
		c := NewContract(testRegistry(t), testCode)
		err := c.Verify()
		require.ErrorIs(t, err, ErrCodeHashMismatch)
		require.Contains(t, err.Error(), fixtureHash)
	})

	t.Run("match", func(t *testing.T) {
		path := writeBundle(t, t.TempDir(), "erc20.json", codeHash(testCode), nil)
		reg, err := registry.LoadFile(path)
		require.NoError(t, err)
		require.NoError(t, NewContract(reg, testCode).Verify())
	})

	t.Run("no recorded hash", func(t *testing.T) {
		doc := `{"version": "4", "types": [], "spec": {}}`
		reg, err := registry.Load([]byte(doc))
		require.NoError(t, err)
		require.ErrorIs(t, NewContract(reg, testCode).Verify(), ErrNoCodeHash)
	})
}

func TestLoadContract(t *testing.T) {
	t.Run("embedded code", func(t *testing.T) {
		path := writeBundle(t, t.TempDir(), "erc20.contract", codeHash(testCode), testCode)
		c, err := LoadContract(path)
		require.NoError(t, err)
		assert.Equal(t, testCode, c.Code())
		require.NoError(t, c.Verify())
	})

	t.Run("sibling wasm", func(t *testing.T) {
		dir := t.TempDir()
		path := writeBundle(t, dir, "erc20.json", codeHash(testCode), nil)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "erc20.wasm"), testCode, 0o600))

		c, err := LoadContract(path)
		require.NoError(t, err)
		assert.Equal(t, testCode, c.Code())
		require.NoError(t, c.Verify())
	})

	t.Run("metadata only", func(t *testing.T) {
		c, err := LoadContract("testdata/erc20.json")
		require.NoError(t, err)
		assert.Empty(t, c.Code())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadContract(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		require.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestContractMessages(t *testing.T) {
	c := NewContract(testRegistry(t), nil)

	assert.True(t, c.HasMessage("transfer"))
	assert.True(t, c.HasMessage("approve"))
	assert.True(t, c.HasMessage("PSP22::approve"))
	assert.False(t, c.HasMessage("new"))
	assert.False(t, c.HasMessage("burn"))

	assert.Equal(t, []string{
		"total_supply", "balance_of", "transfer", "PSP22::approve",
		"set_points", "flip", "peek", "store",
	}, c.MessageNames())
}

func TestContractInvoke(t *testing.T) {
	c := NewContract(testRegistry(t), nil)

	call, err := c.Invoke("balance_of", account(7))
	require.NoError(t, err)
	data, err := call.Encode()
	require.NoError(t, err)
	assert.Equal(t, "0x0f755a56"+strings.Repeat("07", 32), hexutil.Encode(data))

	assert.Panics(t, func() { c.MustInvoke("burn") })

	ctor, err := c.Instantiate("new", value.NewUInt(value.MaxWidth, 1))
	require.NoError(t, err)
	assert.Equal(t, registry.Constructor, ctor.Kind())

	_, err = c.Instantiate("transfer", account(1), value.NewUInt(value.MaxWidth, 1))
	require.ErrorIs(t, err, registry.ErrNotFound)
}
