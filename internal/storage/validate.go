package storage

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/wallet-tracker/internal/errors"
)

// NormalizeAddress validates an EVM address and returns its lowercase form.
// All addresses are stored and compared lowercase.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", errors.NewInvalidAddressError(address)
	}
	return strings.ToLower(address), nil
}
