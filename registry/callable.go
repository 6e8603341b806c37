package registry

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"
)

// SelectorSize is the size of a message or constructor selector in bytes.
const SelectorSize = 4

// AnyArity disables the argument count filter in FindCallable.
const AnyArity = -1

// CallableKind distinguishes constructors, messages and events.
type CallableKind uint8

const (
	// Constructor instantiates a contract.
	Constructor CallableKind = iota

	// Message is a call on an instantiated contract.
	Message

	// Event is emitted by a contract.
	Event
)

func (k CallableKind) String() string {
	switch k {
	case Constructor:
		return "constructor"
	case Message:
		return "message"
	case Event:
		return "event"
	default:
		return fmt.Sprintf("CallableKind(%d)", uint8(k))
	}
}

// Arg is a named, typed argument of a callable item.
type Arg struct {
	Name        string
	Type        TypeID
	DisplayName []string
	Indexed     bool
}

// CallableItem describes a constructor, message or event.
type CallableItem struct {
	Kind       CallableKind
	Name       string
	Selector   []byte
	Args       []Arg
	ReturnType *TypeID
	Mutates    bool
	Payable    bool
	Docs       []string
}

// Signature renders the item as name(arg: Type, ...) for diagnostics.
func (c *CallableItem) Signature() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Name)
		if len(a.DisplayName) > 0 {
			b.WriteString(": ")
			b.WriteString(strings.Join(a.DisplayName, "::"))
		}
	}
	b.WriteByte(')')
	return b.String()
}

// SelectorHex returns the selector as 0x-prefixed hex.
func (c *CallableItem) SelectorHex() string {
	return hexutil.Encode(c.Selector)
}

// DeriveSelector computes the selector used when metadata omits one:
// the first four bytes of the BLAKE2b-256 digest of the label.
func DeriveSelector(label string) []byte {
	sum := blake2b.Sum256([]byte(label))
	sel := make([]byte, SelectorSize)
	copy(sel, sum[:SelectorSize])
	return sel
}

// matchesName reports whether a callable labelled label answers to name.
// Trait-qualified labels such as "PSP22::transfer" also answer to "transfer".
func matchesName(label, name string, qualified bool) bool {
	if !qualified {
		return label == name
	}
	i := strings.LastIndex(label, "::")
	return i >= 0 && label[i+2:] == name
}
