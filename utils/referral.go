package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReferralCode returns a code like MB-7KQ2ZP4X. Ambiguous characters
// (0, O, 1, I) are left out so codes can be read aloud.
func GenerateReferralCode() (string, error) {
	id, err := gonanoid.Generate(referralAlphabet, 8)
	if err != nil {
		return "", err
	}
	return "MB-" + id, nil
}
