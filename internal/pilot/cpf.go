package pilot

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeCPF keeps only the digits of s.
func NormalizeCPF(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF applies the modulo-11 check digits to an already normalized CPF.
func ValidCPF(digits string) bool {
	if len(digits) != 11 {
		return false
	}
	if strings.Count(digits, digits[:1]) == 11 {
		return false
	}
	for i := 0; i < 11; i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return checkDigit(digits[:9]) == int(digits[9]-'0') &&
		checkDigit(digits[:10]) == int(digits[10]-'0')
}

func checkDigit(prefix string) int {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * (weight - i)
	}
	d := (sum * 10) % 11
	if d == 10 {
		return 0
	}
	return d
}

// HashCPF is sha256(salt + ":" + digits) in hex.
func HashCPF(salt, digits string) string {
	sum := sha256.Sum256([]byte(salt + ":" + digits))
	return hex.EncodeToString(sum[:])
}

func hashIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
