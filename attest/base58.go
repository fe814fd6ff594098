package attest

import (
	"errors"
	"math/big"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var (
	base58Map [256]byte
	bigRadix  = big.NewInt(58)
	bigZero   = big.NewInt(0)
)

func init() {
	for i := 0; i < len(base58Map); i++ {
		base58Map[i] = 255
	}
	for i, char := range base58Alphabet {
		base58Map[char] = byte(i)
	}
}

func toBase58(input []byte) string {
	x := new(big.Int).SetBytes(input)

	out := make([]byte, 0, len(input)*136/100)
	for x.Cmp(bigZero) > 0 {
		mod := new(big.Int)
		x.DivMod(x, bigRadix, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}

	// leading zero bytes
	for _, b := range input {
		if b != 0 {
			break
		}
		out = append(out, base58Alphabet[0])
	}

	// reverse
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return string(out)
}

func fromBase58(input string) ([]byte, error) {
	x := big.NewInt(0)

	for _, char := range []byte(input) {
		digit := base58Map[char]
		if digit == 255 {
			return nil, errors.New("invalid base58 character")
		}
		x.Mul(x, bigRadix)
		x.Add(x, big.NewInt(int64(digit)))
	}

	out := x.Bytes()

	leading := 0
	for leading < len(input) && input[leading] == base58Alphabet[0] {
		leading++
	}

	result := make([]byte, leading+len(out))
	copy(result[leading:], out)
	return result, nil
}
