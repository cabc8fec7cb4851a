package orchestrator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"filippo.io/age"
	"filippo.io/age/agessh"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/scrypt"

	"github.com/tis24dev/showsave/internal/config"
	"github.com/tis24dev/showsave/pkg/bech32"
)

// ErrNoRecipients is returned when encryption is enabled but nothing to
// encrypt to could be resolved.
var ErrNoRecipients = errors.New("no age recipients configured")

const (
	passphraseRecipientSalt = "showsave/age-passphrase/v1"
	passphraseScryptN       = 1 << 15
	passphraseScryptR       = 8
	passphraseScryptP       = 1
	minPassphraseLength     = 12
)

var weakPassphraseList = []string{
	"password",
	"123456",
	"123456789",
	"qwerty",
	"abc123",
	"letmein",
	"admin",
	"welcome",
	"iloveyou",
	"monkey",
}

// PassphrasePrompt asks the operator for the archive passphrase.
type PassphrasePrompt func(ctx context.Context) (string, error)

// ResolveRecipients builds the age recipients for the configured encryption
// settings. It returns nil when encryption is disabled. The passphrase, when
// enabled, is turned into a deterministic X25519 recipient so it can be mixed
// with public keys and later reopened with DeriveIdentityFromPassphrase.
func ResolveRecipients(ctx context.Context, enc config.EncryptionSettings, prompt PassphrasePrompt) ([]age.Recipient, error) {
	if !enc.Enabled {
		return nil, nil
	}

	values := append([]string(nil), enc.Recipients...)
	if enc.RecipientFile != "" {
		fromFile, err := readRecipientFile(enc.RecipientFile)
		if err != nil {
			return nil, fmt.Errorf("read recipient file %s: %w", enc.RecipientFile, err)
		}
		values = append(values, fromFile...)
	}

	if enc.Passphrase {
		if prompt == nil {
			return nil, fmt.Errorf("passphrase encryption requires an interactive terminal")
		}
		pass, err := prompt(ctx)
		if err != nil {
			return nil, err
		}
		if err := validatePassphraseStrength([]byte(pass)); err != nil {
			return nil, err
		}
		recipient, err := deriveRecipientFromPassphrase(pass)
		if err != nil {
			return nil, err
		}
		values = append(values, recipient)
	}

	return parseRecipientStrings(values)
}

// DeriveIdentityFromPassphrase returns the identity that opens archives
// encrypted with the given passphrase.
func DeriveIdentityFromPassphrase(passphrase string) (age.Identity, error) {
	key, err := deriveCurve25519Scalar(passphrase)
	if err != nil {
		return nil, err
	}
	secret, err := bech32.Encode("AGE-SECRET-KEY-", key)
	if err != nil {
		return nil, fmt.Errorf("encode secret key: %w", err)
	}
	return age.ParseX25519Identity(strings.ToUpper(secret))
}

func deriveRecipientFromPassphrase(passphrase string) (string, error) {
	key, err := deriveCurve25519Scalar(passphrase)
	if err != nil {
		return "", err
	}
	public, err := curve25519.X25519(key, curve25519.Basepoint)
	if err != nil {
		return "", fmt.Errorf("derive X25519 public key: %w", err)
	}
	recipient, err := bech32.Encode("age", public)
	if err != nil {
		return "", fmt.Errorf("encode passphrase recipient: %w", err)
	}
	return recipient, nil
}

func deriveCurve25519Scalar(passphrase string) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), []byte(passphraseRecipientSalt), passphraseScryptN, passphraseScryptR, passphraseScryptP, curve25519.ScalarSize)
	if err != nil {
		return nil, fmt.Errorf("derive key from passphrase: %w", err)
	}
	clampCurve25519Scalar(key)
	return key, nil
}

func clampCurve25519Scalar(k []byte) {
	if len(k) != curve25519.ScalarSize {
		return
	}
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}

func dedupeRecipientStrings(values []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

func parseRecipientStrings(values []string) ([]age.Recipient, error) {
	values = dedupeRecipientStrings(values)
	if len(values) == 0 {
		return nil, ErrNoRecipients
	}
	parsed := make([]age.Recipient, 0, len(values))
	for _, value := range values {
		recipient, err := parseRecipientString(value)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, recipient)
	}
	return parsed, nil
}

func parseRecipientString(value string) (age.Recipient, error) {
	switch {
	case strings.HasPrefix(value, "age1"):
		return age.ParseX25519Recipient(value)
	case strings.HasPrefix(strings.ToLower(value), "ssh-"):
		return agessh.ParseRecipient(value)
	default:
		return nil, fmt.Errorf("unsupported age recipient format: %s", value)
	}
}

func readRecipientFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recipients []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		recipients = append(recipients, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return recipients, nil
}

func validatePassphraseStrength(pass []byte) error {
	passStr := string(pass)
	if len(passStr) < minPassphraseLength {
		return fmt.Errorf("passphrase too short; use at least %d characters", minPassphraseLength)
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range passStr {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	classes := 0
	for _, flag := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if flag {
			classes++
		}
	}
	if classes < 3 {
		return fmt.Errorf("passphrase must include characters from at least three categories (uppercase, lowercase, digits, symbols)")
	}

	lower := strings.ToLower(passStr)
	for _, weak := range weakPassphraseList {
		if lower == weak {
			return fmt.Errorf("passphrase is too common; choose a more unique phrase")
		}
	}
	return nil
}
