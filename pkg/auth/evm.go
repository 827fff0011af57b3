// Package auth verifies caller credentials for the middleware's HTTP
// surfaces: EIP-191 ownership proofs for controller wallets and HMAC service
// tokens for management endpoints.
package auth

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// VerifyControllerProof verifies an EIP-191 personal_sign signature and
// returns the normalized address that produced it. Deployments that require
// proof of controller ownership call this before accepting an enrollment for
// that controller.
func VerifyControllerProof(message, signature string) (string, error) {
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(sigBytes) != 65 {
		return "", fmt.Errorf("invalid signature length: expected 65, got %d", len(sigBytes))
	}

	// Recovery id may arrive as 0/1 or 27/28.
	if sigBytes[64] >= 27 {
		sigBytes[64] -= 27
	}

	prefixedMsg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	msgHash := crypto.Keccak256Hash([]byte(prefixedMsg))

	pubKey, err := crypto.SigToPub(msgHash.Bytes(), sigBytes)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", err)
	}

	return NormalizeController(crypto.PubkeyToAddress(*pubKey).Hex()), nil
}

// IsEVMController reports whether the controller identifier looks like a
// 20-byte hex wallet address. Other controller schemes pass through the
// middleware untouched.
func IsEVMController(controller string) bool {
	if !strings.HasPrefix(controller, "0x") || len(controller) != 42 {
		return false
	}
	_, err := hex.DecodeString(controller[2:])
	return err == nil
}

// NormalizeController canonicalizes EVM-style controller identifiers to
// their checksummed form so that set membership in a bundle's controller
// list is case-insensitive. Non-EVM identifiers are returned unchanged.
func NormalizeController(controller string) string {
	if !IsEVMController(controller) {
		return controller
	}
	return common.HexToAddress(controller).Hex()
}
