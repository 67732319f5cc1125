// Package auth verifies caller identity for the payment API: JWT bearer
// tokens for user identity and EIP-191 personal_sign signatures for wallet
// ownership proofs.
package auth

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// VerifyEIP191Signature verifies an EIP-191 personal_sign signature and
// returns the recovered signer address.
func VerifyEIP191Signature(message, signature string) (common.Address, error) {
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid signature hex: %w", err)
	}

	if len(sigBytes) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length: expected 65, got %d", len(sigBytes))
	}

	// Recovery id (v) may be 0, 1, 27, or 28; normalize to 0 or 1.
	if sigBytes[64] >= 27 {
		sigBytes[64] -= 27
	}

	prefixedMsg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	msgHash := crypto.Keccak256Hash([]byte(prefixedMsg))

	pubKey, err := crypto.SigToPub(msgHash.Bytes(), sigBytes)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

// ProveAddressOwnership verifies that signature over message was produced by
// claimedAddress. Used by wallet binding so a user cannot register an address
// they do not control.
func ProveAddressOwnership(message, signature, claimedAddress string) error {
	recovered, err := VerifyEIP191Signature(message, signature)
	if err != nil {
		return err
	}
	if recovered != common.HexToAddress(claimedAddress) {
		return fmt.Errorf("signature recovered %s, not claimed address %s",
			recovered.Hex(), NormalizeAddress(claimedAddress))
	}
	return nil
}

// ValidateEVMAddress checks if a string is a valid EVM address
func ValidateEVMAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") {
		return false
	}
	if len(address) != 42 {
		return false
	}
	_, err := hex.DecodeString(address[2:])
	return err == nil
}

// NormalizeAddress returns a checksummed EVM address
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}
