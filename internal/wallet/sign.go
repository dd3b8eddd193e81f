package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignMessage signs message as an EIP-191 personal message and returns the
// 65-byte R || S || V signature with V in {27, 28}.
func (s *Signer) SignMessage(message []byte) ([]byte, error) {
	privKey, err := s.key()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(accounts.TextHash(message), privKey)
	if err != nil {
		return nil, fmt.Errorf("signing message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignMessage is shorthand for NewSigner(w, ks).SignMessage(message).
func SignMessage(w *Wallet, ks KeystoreBackend, message []byte) ([]byte, error) {
	return NewSigner(w, ks).SignMessage(message)
}

// VerifyMessage recovers the address that produced sig over message.
// V may be given as 0/1 or 27/28.
func VerifyMessage(message, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length: expected %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	rsv := common.CopyBytes(sig)
	if rsv[crypto.RecoveryIDOffset] >= 27 {
		rsv[crypto.RecoveryIDOffset] -= 27
	}
	if rsv[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id %d", sig[crypto.RecoveryIDOffset])
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash(message), rsv)
	if err != nil {
		return common.Address{}, fmt.Errorf("recovering signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}
