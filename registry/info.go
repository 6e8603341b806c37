package registry

import (
	"github.com/ethereum/go-ethereum/common"
)

// Info is the descriptive part of a metadata document. None of it affects
// transcoding.
type Info struct {
	MetadataVersion string
	ContractName    string
	ContractVersion string
	Authors         []string
	Language        string
	Compiler        string
	CodeHash        common.Hash
	HasCodeHash     bool
	Wasm            []byte
}
