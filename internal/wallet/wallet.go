// Package wallet holds the local player's signing identity. Addresses and
// seeds use the strkey encoding (checksummed base32 over an ed25519 key),
// so identities interoperate with standard network tooling.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/farklezone/farkle-client/internal/domain"
)

// AuthOpts scopes an auth-entry signature to one address, network and
// ledger validity horizon. A relay rejects signatures whose ledger horizon
// has passed.
type AuthOpts struct {
	Address           domain.Player `json:"address"`
	NetworkPassphrase string        `json:"network_passphrase"`
	LastValidLedger   uint32        `json:"last_valid_ledger"`
}

// Wallet is the signing capability for the local player.
type Wallet interface {
	// Address returns the player's public strkey address.
	Address() domain.Player

	// Sign returns the raw signature over payload.
	Sign(payload []byte) []byte

	// SignAuthEntry signs payload bound to opts and returns the signature
	// base64-encoded for transport.
	SignAuthEntry(payload []byte, opts AuthOpts) (string, error)
}

// Keypair is an ed25519 Wallet.
type Keypair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// Generate creates a fresh random Keypair.
func Generate() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Keypair{pub: pub, priv: priv}, nil
}

// FromSeed restores a Keypair from an S... strkey seed.
func FromSeed(seed string) (*Keypair, error) {
	raw, err := decodeStrkey(versionSeed, seed)
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes", domain.ErrBadKeyEncoding, len(raw))
	}

	priv := ed25519.NewKeyFromSeed(raw)
	return &Keypair{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

// Address returns the keypair's G... strkey address.
func (k *Keypair) Address() domain.Player {
	return domain.Player(encodeStrkey(versionAccount, k.pub))
}

// Seed returns the keypair's S... strkey seed for persistence.
func (k *Keypair) Seed() string {
	return encodeStrkey(versionSeed, k.priv.Seed())
}

// Sign returns the raw ed25519 signature over payload.
func (k *Keypair) Sign(payload []byte) []byte {
	return ed25519.Sign(k.priv, payload)
}

// SignAuthEntry signs payload bound to opts. The signed message is the
// canonical JSON of opts plus the payload, so a signature cannot be
// replayed for another address, network or ledger horizon.
func (k *Keypair) SignAuthEntry(payload []byte, opts AuthOpts) (string, error) {
	if opts.Address != k.Address() {
		return "", fmt.Errorf("%w: auth entry addresses %s", domain.ErrSubmissionRejected, opts.Address)
	}

	envelope, err := json.Marshal(struct {
		AuthOpts
		Payload []byte `json:"payload"`
	}{AuthOpts: opts, Payload: payload})
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(k.Sign(envelope)), nil
}

// Verify checks a raw signature over payload against address. Used by
// tests and by anything that round-trips relay handshakes locally.
func Verify(address domain.Player, payload, sig []byte) (bool, error) {
	pub, err := decodeStrkey(versionAccount, string(address))
	if err != nil {
		return false, err
	}
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: key is %d bytes", domain.ErrBadKeyEncoding, len(pub))
	}
	return ed25519.Verify(ed25519.PublicKey(pub), payload, sig), nil
}
