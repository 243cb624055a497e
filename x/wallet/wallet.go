// Package wallet provides the key backed signer that stands in for a browser wallet
package wallet

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"gitlab.com/yawning/secp256k1-voi/secec"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/mjtimeline/core"
)

var tracer = otel.Tracer("wallet")

// Wallet is a core.Wallet that can be connected and disconnected
type Wallet interface {
	core.Wallet
	Connect() error
	Disconnect()
}

type wallet struct {
	mu         sync.RWMutex
	privateKey string
	prefix     string
	address    string
	connected  bool
}

// NewWallet creates a disconnected wallet for the configured key
func NewWallet(config core.Config) Wallet {
	return &wallet{
		privateKey: config.PrivateKey,
		prefix:     config.AddressPrefix,
	}
}

// Connect derives the account address and marks the wallet connected
func (w *wallet) Connect() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.privateKey == "" {
		return errors.New("no private key configured")
	}

	address, err := DeriveAddress(w.privateKey, w.prefix)
	if err != nil {
		return err
	}

	w.address = address
	w.connected = true
	return nil
}

func (w *wallet) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.connected = false
	w.address = ""
}

func (w *wallet) CurrentAccount() string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.address
}

func (w *wallet) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.connected
}

// Sign returns the hex encoded keccak256/secp256k1 signature of payload
func (w *wallet) Sign(ctx context.Context, payload []byte) (string, error) {
	_, span := tracer.Start(ctx, "Wallet.Sign")
	defer span.End()

	w.mu.RLock()
	connected := w.connected
	privateKey := w.privateKey
	w.mu.RUnlock()

	if !connected {
		return "", core.NewErrorNotConnected()
	}

	signature, err := core.SignBytes(payload, privateKey)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	return hex.EncodeToString(signature), nil
}

// DeriveAddress returns the bech32 account address of a hex private key
func DeriveAddress(privateKey, prefix string) (string, error) {
	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert private key")
	}

	pubkey, err := secec.NewPublicKey(crypto.FromECDSAPub(&key.PublicKey))
	if err != nil {
		return "", errors.Wrap(err, "failed to load public key")
	}

	return core.PubkeyBytesToAddr(pubkey.CompressedBytes(), prefix)
}
