package transcode

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/blake2b"

	"github.com/branched-services/go-ink-transcode/registry"
	"github.com/branched-services/go-ink-transcode/value"
)

var (
	// ErrNoCode indicates the contract bundle carries no compiled code.
	ErrNoCode = errors.New("transcode: contract has no code")

	// ErrNoCodeHash indicates the metadata does not record a code hash.
	ErrNoCodeHash = errors.New("transcode: metadata has no code hash")

	// ErrCodeHashMismatch indicates the code does not hash to the recorded value.
	ErrCodeHashMismatch = errors.New("transcode: code hash mismatch")
)

// Contract is a loaded contract bundle: its metadata and, when available,
// the compiled code the metadata describes.
type Contract struct {
	tc   *Transcoder
	code []byte
}

// NewContract wraps a registry and optional compiled code. If code is nil the
// code embedded in the metadata is used.
func NewContract(reg *registry.Registry, code []byte, opts ...Option) *Contract {
	if code == nil {
		code = reg.Info().Wasm
	}
	return &Contract{tc: New(reg, opts...), code: code}
}

// LoadContract loads a contract bundle. A ".contract" file carries its code
// embedded in the metadata; for any other file a sibling with the same name
// and a ".wasm" extension is read when it exists.
func LoadContract(path string, opts ...Option) (*Contract, error) {
	reg, err := registry.LoadFile(path)
	if err != nil {
		return nil, err
	}
	code := reg.Info().Wasm
	if filepath.Ext(path) != ".contract" {
		wasm := strings.TrimSuffix(path, filepath.Ext(path)) + ".wasm"
		b, err := os.ReadFile(wasm)
		switch {
		case err == nil:
			code = b
		case !os.IsNotExist(err):
			return nil, errors.Wrapf(err, "transcode: reading %s", wasm)
		}
	}
	c := NewContract(reg, code, opts...)
	c.tc.log.Debug("loaded contract")
	return c, nil
}

// Registry returns the contract's type registry.
func (c *Contract) Registry() *registry.Registry {
	return c.tc.reg
}

// Transcoder returns the transcoder for the contract's metadata.
func (c *Contract) Transcoder() *Transcoder {
	return c.tc
}

// Code returns the compiled code, or nil if the bundle has none.
func (c *Contract) Code() []byte {
	return c.code
}

// CodeHash returns the BLAKE2b-256 digest of the compiled code.
func (c *Contract) CodeHash() (common.Hash, error) {
	if len(c.code) == 0 {
		return common.Hash{}, ErrNoCode
	}
	return common.Hash(blake2b.Sum256(c.code)), nil
}

// Verify checks the compiled code against the hash recorded in the metadata.
func (c *Contract) Verify() error {
	info := c.tc.reg.Info()
	if !info.HasCodeHash {
		return ErrNoCodeHash
	}
	got, err := c.CodeHash()
	if err != nil {
		return err
	}
	if got != info.CodeHash {
		return errors.Wrapf(ErrCodeHashMismatch, "metadata records %s, code hashes to %s", info.CodeHash.Hex(), got.Hex())
	}
	return nil
}

// Invoke creates a Call for the named message with the given arguments.
func (c *Contract) Invoke(message string, args ...value.Value) (*Call, error) {
	return c.tc.Invoke(registry.Message, message, args...)
}

// MustInvoke is like Invoke but panics on error.
func (c *Contract) MustInvoke(message string, args ...value.Value) *Call {
	call, err := c.Invoke(message, args...)
	if err != nil {
		panic(err)
	}
	return call
}

// Instantiate creates a Call for the named constructor.
func (c *Contract) Instantiate(constructor string, args ...value.Value) (*Call, error) {
	return c.tc.Invoke(registry.Constructor, constructor, args...)
}

// HasMessage returns true if the contract has a message answering to name.
func (c *Contract) HasMessage(name string) bool {
	_, err := c.tc.reg.FindCallable(registry.Message, name, registry.AnyArity)
	return err == nil || errors.Is(err, registry.ErrAmbiguous)
}

// MessageNames returns all message labels in document order.
func (c *Contract) MessageNames() []string {
	items := c.tc.reg.Callables(registry.Message)
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}
