package model

import (
	"crypto/rand"
	"math/big"
)

const (
	CodeLength   = 8
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewCode returns a random booking code of CodeLength characters from [A-Z0-9].
func NewCode() string {
	code := make([]byte, CodeLength)
	limit := big.NewInt(int64(len(codeAlphabet)))

	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}

		code[i] = codeAlphabet[n.Int64()]
	}

	return string(code)
}
