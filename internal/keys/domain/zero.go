package domain

// Zero securely overwrites a byte slice with zeros to clear sensitive data from memory.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

// ZeroKey clears the key material and IV of a key in place.
func ZeroKey(k *EncryptionKey) {
	if k == nil {
		return
	}
	Zero(k.Material)
	Zero(k.IV)
}
