package services

// Solana addresses are base58-encoded 32-byte public keys, which encode to
// 32-44 characters from the Bitcoin base58 alphabet (no 0, O, I, l).

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Set = func() [256]bool {
	var s [256]bool
	for i := 0; i < len(base58Alphabet); i++ {
		s[base58Alphabet[i]] = true
	}
	return s
}()

// ValidWalletAddress reports whether addr looks like a Solana wallet
// address. It catches malformed addresses that slipped into invitations,
// not cryptographic validity.
func ValidWalletAddress(addr string) bool {
	if len(addr) < 32 || len(addr) > 44 {
		return false
	}
	for i := 0; i < len(addr); i++ {
		if !base58Set[addr[i]] {
			return false
		}
	}
	return true
}
