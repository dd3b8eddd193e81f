package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signingWallet(t *testing.T) (*Wallet, KeystoreBackend) {
	t.Helper()
	iks := NewInMemoryKeystore()
	ref, err := iks.Store("signer", testPrivKeyHex)
	require.NoError(t, err)
	return &Wallet{Name: "signer", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}, iks
}

func TestSignMessageRecoversSigner(t *testing.T) {
	w, ks := signingWallet(t)

	long := make([]byte, 1024)
	for i := range long {
		long[i] = byte(i)
	}
	for name, msg := range map[string][]byte{
		"short": []byte("confirm owner 0x7216AE55686bAC952475F752724c2852FaC60f96"),
		"empty": {},
		"long":  long,
	} {
		t.Run(name, func(t *testing.T) {
			sig, err := SignMessage(w, ks, msg)
			require.NoError(t, err)
			require.Len(t, sig, crypto.SignatureLength)
			assert.Contains(t, []byte{27, 28}, sig[crypto.RecoveryIDOffset])

			got, err := VerifyMessage(msg, sig)
			require.NoError(t, err)
			assert.Equal(t, testSignerAddr, got.Hex())
		})
	}
}

func TestSignMessageMatchesPersonalSign(t *testing.T) {
	w, ks := signingWallet(t)
	msg := []byte("astrometer")

	sig, err := NewSigner(w, ks).SignMessage(msg)
	require.NoError(t, err)

	key, err := crypto.HexToECDSA(testPrivKeyHex)
	require.NoError(t, err)
	want, err := crypto.Sign(accounts.TextHash(msg), key)
	require.NoError(t, err)
	want[crypto.RecoveryIDOffset] += 27
	assert.Equal(t, want, sig)
}

func TestVerifyMessageAcceptsRawRecoveryID(t *testing.T) {
	w, ks := signingWallet(t)
	msg := []byte("v as 0/1")
	sig, err := SignMessage(w, ks, msg)
	require.NoError(t, err)

	sig[crypto.RecoveryIDOffset] -= 27
	got, err := VerifyMessage(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, got.Hex())
}

func TestVerifyMessageMismatch(t *testing.T) {
	w, ks := signingWallet(t)
	sig, err := SignMessage(w, ks, []byte("correct message"))
	require.NoError(t, err)

	got, err := VerifyMessage([]byte("wrong message"), sig)
	if err == nil {
		assert.NotEqual(t, testSignerAddr, got.Hex())
	}

	tampered := common.CopyBytes(sig)
	tampered[0] ^= 0xff
	got, err = VerifyMessage([]byte("correct message"), tampered)
	if err == nil {
		assert.NotEqual(t, testSignerAddr, got.Hex())
	}
}

func TestVerifyMessageRejectsMalformedSignature(t *testing.T) {
	_, err := VerifyMessage([]byte("test"), []byte("tooshort"))
	assert.ErrorContains(t, err, "invalid signature length")

	sig := make([]byte, crypto.SignatureLength)
	sig[crypto.RecoveryIDOffset] = 30
	_, err = VerifyMessage([]byte("test"), sig)
	assert.ErrorContains(t, err, "invalid recovery id")
}

func TestSignMessageErrors(t *testing.T) {
	iks := NewInMemoryKeystore()
	otherRef, err := iks.Store("other", "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d")
	require.NoError(t, err)

	tests := []struct {
		name string
		w    *Wallet
		want string
	}{
		{"watch-only", &Wallet{Name: "watcher", Address: testSignerAddr, Type: TypeWatchOnly}, "watch-only"},
		{"missing key", &Wallet{Name: "w", Address: testSignerAddr, Type: TypeSigning, KeyRef: "astrometer.missing"}, "retrieving key"},
		{"key for another address", &Wallet{Name: "w", Address: testSignerAddr, Type: TypeSigning, KeyRef: otherRef}, "does not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SignMessage(tt.w, iks, []byte("test"))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
