package signer

import (
	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
)

// ContextSigner is a wrapper around a signer to provide extra context.
type ContextSigner struct {
	ndn.Signer
	KeyLocatorName enc.Name
}

// Returns the key locator name specifying the key used for signing by this context.
func (s *ContextSigner) KeyLocator() enc.Name {
	return s.KeyLocatorName
}
