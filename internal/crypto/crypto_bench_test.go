package crypto_test

import (
	"crypto/rand"
	"testing"

	"github.com/illarion/sealsheet/internal/crypto"
)

func BenchmarkDerive(b *testing.B) {
	salt, err := crypto.NewSalt(rand.Reader)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m, err := crypto.Derive([]byte("password123"), salt, crypto.DefaultIterations)
		if err != nil {
			b.Fatal(err)
		}
		m.Destroy()
	}
}

func BenchmarkEncrypt(b *testing.B) {
	plaintext := make([]byte, 1024)
	if _, err := rand.Read(plaintext); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := crypto.Encrypt(plaintext, []byte("password123"), 1); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecrypt(b *testing.B) {
	plaintext := make([]byte, 1024)
	if _, err := rand.Read(plaintext); err != nil {
		b.Fatal(err)
	}
	encoded, err := crypto.Encrypt(plaintext, []byte("password123"), 1)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := crypto.Decrypt(encoded, []byte("password123"), 1); err != nil {
			b.Fatal(err)
		}
	}
}
