package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/CoReason-AI/coreason-aegis/internal/aegiserr"
)

const (
	keySize       = 32 // AES-256
	nonceSize     = 12 // GCM standard nonce size
	formatVersion = byte(1)
	hkdfInfo      = "aegis-vault-dek-v1"
)

// sealer encrypts and decrypts Vault payloads at rest. The root key
// material provided by the operator never touches the cipher directly:
// a per-process data-encryption key is derived from it with HKDF first,
// so compromising one derived key does not expose the root.
type sealer struct {
	dek [keySize]byte
}

// newSealer derives a data-encryption key from rootKey via
// HKDF-SHA256 and returns a sealer ready to encrypt/decrypt payloads.
func newSealer(rootKey []byte) (*sealer, error) {
	if len(rootKey) == 0 {
		return nil, aegiserr.New(aegiserr.KindVaultCryptoFailure, "empty vault root key")
	}
	kdf := hkdf.New(sha256.New, rootKey, nil, []byte(hkdfInfo))
	s := &sealer{}
	if _, err := io.ReadFull(kdf, s.dek[:]); err != nil {
		return nil, aegiserr.Wrap(aegiserr.KindVaultCryptoFailure, "dek derivation failed", err)
	}
	return s, nil
}

// seal encrypts plaintext and returns the wire format
// [version byte][12-byte GCM nonce][ciphertext].
func (s *sealer) seal(plaintext []byte) ([]byte, error) {
	gcm, err := s.newGCM()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, aegiserr.Wrap(aegiserr.KindVaultCryptoFailure, "nonce generation failed", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, 1+nonceSize+len(ciphertext))
	out = append(out, formatVersion)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// open decrypts a payload produced by seal. A failed authentication
// check is a fatal VaultCryptoFailure: the gate must quarantine the
// session rather than return corrupted plaintext.
func (s *sealer) open(data []byte) ([]byte, error) {
	if len(data) < 1+nonceSize {
		return nil, aegiserr.New(aegiserr.KindVaultCryptoFailure, "payload too short")
	}
	if data[0] != formatVersion {
		return nil, aegiserr.New(aegiserr.KindVaultCryptoFailure, fmt.Sprintf("unsupported payload version %d", data[0]))
	}

	gcm, err := s.newGCM()
	if err != nil {
		return nil, err
	}

	nonce := data[1 : 1+nonceSize]
	ciphertext := data[1+nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, aegiserr.Wrap(aegiserr.KindVaultCryptoFailure, "authenticated decryption failed", err)
	}
	return plaintext, nil
}

func (s *sealer) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.dek[:])
	if err != nil {
		return nil, aegiserr.Wrap(aegiserr.KindVaultCryptoFailure, "cipher init failed", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, aegiserr.Wrap(aegiserr.KindVaultCryptoFailure, "gcm init failed", err)
	}
	return gcm, nil
}
