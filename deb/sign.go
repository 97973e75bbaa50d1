package deb

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Signer produces detached OpenPGP signatures for built packages.
type Signer struct {
	entity *openpgp.Entity
}

// NewSigner reads an ASCII-armored (or binary) private key. When the key is
// encrypted, passphrase is used to decrypt it and its subkeys.
func NewSigner(key []byte, passphrase string) (*Signer, error) {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(key))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(key))
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}

	var signer *openpgp.Entity
	for _, e := range entities {
		if e.PrivateKey != nil {
			signer = e
			break
		}
	}
	if signer == nil {
		return nil, fmt.Errorf("no private key found")
	}

	if signer.PrivateKey.Encrypted {
		if passphrase == "" {
			return nil, fmt.Errorf("private key is encrypted and no passphrase was given")
		}
		if err := signer.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
			return nil, fmt.Errorf("failed to decrypt private key: %w", err)
		}
	}
	for _, subkey := range signer.Subkeys {
		if subkey.PrivateKey != nil && subkey.PrivateKey.Encrypted && passphrase != "" {
			if err := subkey.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
				return nil, fmt.Errorf("failed to decrypt subkey: %w", err)
			}
		}
	}
	return &Signer{entity: signer}, nil
}

// SignDetached returns an ASCII-armored detached signature of message.
func (s *Signer) SignDetached(message io.Reader) ([]byte, error) {
	var out bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&out, s.entity, message, nil); err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	return out.Bytes(), nil
}
