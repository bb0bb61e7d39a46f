package validation

import (
	"fmt"
	"regexp"
	"strings"

	neoaddress "github.com/nspcc-dev/neo-go/pkg/encoding/address"
	tonaddress "github.com/xssnick/tonutils-go/address"

	"referral-staking-backend/internal/domain/ledger"
)

const (
	// Максимальные длины для различных полей
	MaxWalletAddressLength = 255
	MaxTxHashLength        = 255
	ReferralCodeLength     = 10
)

var (
	ethereumAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	referralCodeRegex    = regexp.MustCompile(`^[A-Za-z0-9_-]{10}$`)
)

// ValidateWalletAddress проверяет адрес кошелька. В strict режиме формат
// проверяется по типу сети, иначе адрес считается непрозрачной строкой.
func ValidateWalletAddress(wallet string, walletType ledger.WalletType, strict bool) error {
	if strings.TrimSpace(wallet) == "" {
		return fmt.Errorf("wallet address cannot be empty")
	}
	if wallet != strings.TrimSpace(wallet) {
		return fmt.Errorf("wallet address cannot contain surrounding whitespace")
	}
	if len(wallet) > MaxWalletAddressLength {
		return fmt.Errorf("wallet address cannot exceed %d characters", MaxWalletAddressLength)
	}
	if !strict {
		return nil
	}

	switch walletType {
	case ledger.WalletTypeEthereum:
		if !ethereumAddressRegex.MatchString(wallet) {
			return fmt.Errorf("not a valid ethereum address")
		}
	case ledger.WalletTypeTON:
		if _, err := tonaddress.ParseAddr(wallet); err != nil {
			if _, rawErr := tonaddress.ParseRawAddr(wallet); rawErr != nil {
				return fmt.Errorf("not a valid ton address: %w", err)
			}
		}
	case ledger.WalletTypeNeo:
		if _, err := neoaddress.StringToUint160(wallet); err != nil {
			return fmt.Errorf("not a valid neo address: %w", err)
		}
	default:
		return fmt.Errorf("unsupported wallet type %q", walletType)
	}
	return nil
}

// ValidateWalletType проверяет тип кошелька
func ValidateWalletType(walletType string) error {
	if walletType == "" {
		return nil
	}
	if !ledger.WalletType(walletType).Valid() {
		return fmt.Errorf("wallet type must be one of ethereum, ton, neo")
	}
	return nil
}

// IsValidReferralCode проверяет формат реферального кода
func IsValidReferralCode(code string) bool {
	return referralCodeRegex.MatchString(code)
}

// ValidateTxHash проверяет ссылку на транзакцию. Пустая строка допустима.
func ValidateTxHash(txHash string) error {
	if len(txHash) > MaxTxHashLength {
		return fmt.Errorf("tx hash cannot exceed %d characters", MaxTxHashLength)
	}
	if strings.ContainsAny(txHash, " \t\r\n") {
		return fmt.Errorf("tx hash cannot contain whitespace")
	}
	return nil
}

// ValidatePositiveInt проверяет, что значение положительное
func ValidatePositiveInt(value int64, fieldName string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	return nil
}
