package crypto

import (
	"errors"
	"strings"
	"testing"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

func TestNewEncryptor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{name: "missing secret", secret: "", wantErr: true},
		{name: "short secret", secret: strings.Repeat("s", 31), wantErr: true},
		{name: "exact minimum", secret: strings.Repeat("s", 32)},
		{name: "long secret", secret: strings.Repeat("s", 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			enc, err := NewEncryptor(tt.secret)
			if tt.wantErr {
				if !errors.Is(err, errs.ErrConfiguration) {
					t.Fatalf("expected ErrConfiguration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if enc == nil {
				t.Fatal("expected encryptor instance")
			}
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	enc, err := NewEncryptor(strings.Repeat("k", 32))
	if err != nil {
		t.Fatalf("failed to build encryptor: %v", err)
	}

	for _, plaintext := range []string{"shpat_abc123", "", "ünïcødé ✓"} {
		first, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("encrypt failed: %v", err)
		}
		second, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("encrypt failed: %v", err)
		}
		if first == second {
			t.Fatal("ciphertexts should differ due to random salt and iv")
		}
		if !IsEncrypted(first) && plaintext != "" {
			t.Fatalf("expected envelope shape, got %q", first)
		}

		got, err := enc.Decrypt(first)
		if err != nil {
			t.Fatalf("decrypt failed: %v", err)
		}
		if got != plaintext {
			t.Fatalf("unexpected plaintext: got %q want %q", got, plaintext)
		}
	}
}

func TestEncryptEnvelopeLayout(t *testing.T) {
	t.Parallel()

	enc, err := NewEncryptor(strings.Repeat("k", 32))
	if err != nil {
		t.Fatalf("failed to build encryptor: %v", err)
	}

	out, err := enc.Encrypt("token")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	parts := strings.Split(out, ":")
	if len(parts) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(parts))
	}
	if len(parts[0]) != saltSize*2 {
		t.Fatalf("salt hex length = %d", len(parts[0]))
	}
	if len(parts[1]) != ivSize*2 {
		t.Fatalf("iv hex length = %d", len(parts[1]))
	}
	if len(parts[2]) != tagSize*2 {
		t.Fatalf("tag hex length = %d", len(parts[2]))
	}
	if len(parts[3]) != len("token")*2 {
		t.Fatalf("ciphertext hex length = %d", len(parts[3]))
	}
}

func TestDecryptErrors(t *testing.T) {
	t.Parallel()

	encA, err := NewEncryptor(strings.Repeat("a", 32))
	if err != nil {
		t.Fatalf("failed to build encryptor A: %v", err)
	}
	encB, err := NewEncryptor(strings.Repeat("b", 32))
	if err != nil {
		t.Fatalf("failed to build encryptor B: %v", err)
	}

	valid, err := encA.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	parts := strings.Split(valid, ":")

	flipped := []byte(parts[3])
	if flipped[0] == '0' {
		flipped[0] = '1'
	} else {
		flipped[0] = '0'
	}
	tampered := strings.Join([]string{parts[0], parts[1], parts[2], string(flipped)}, ":")

	tests := []struct {
		name  string
		enc   Encryptor
		input string
	}{
		{name: "wrong secret", enc: encB, input: valid},
		{name: "tampered ciphertext", enc: encA, input: tampered},
		{name: "three segments", enc: encA, input: strings.Join(parts[:3], ":")},
		{name: "five segments", enc: encA, input: valid + ":00"},
		{name: "non hex", enc: encA, input: "zz:zz:zz:zz"},
		{name: "short iv", enc: encA, input: strings.Join([]string{parts[0], "00", parts[2], parts[3]}, ":")},
		{name: "misconfigured encryptor", enc: &pbkdf2Encryptor{}, input: valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.enc.Decrypt(tt.input)
			if !errors.Is(err, errs.ErrDecryption) {
				t.Fatalf("expected ErrDecryption, got %v", err)
			}
		})
	}
}

func TestEncryptMisconfigured(t *testing.T) {
	t.Parallel()

	_, err := (&pbkdf2Encryptor{secret: []byte("short")}).Encrypt("x")
	if !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestIsEncrypted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  bool
	}{
		{value: "a:b:c:d", want: true},
		{value: "shpat_plain", want: false},
		{value: "a:b:c", want: false},
		{value: "a:b:c:d:e", want: false},
		{value: "a::c:d", want: false},
		{value: ":b:c:d", want: false},
		{value: "", want: false},
	}

	for _, tt := range tests {
		if got := IsEncrypted(tt.value); got != tt.want {
			t.Fatalf("IsEncrypted(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestDecryptRejectsSingleCharacterTampering(t *testing.T) {
	t.Parallel()

	enc, err := NewEncryptor(strings.Repeat("a", 32))
	if err != nil {
		t.Fatalf("failed to build encryptor: %v", err)
	}
	valid, err := enc.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	parts := strings.Split(valid, ":")

	segments := []struct {
		name  string
		index int
	}{
		{name: "tag", index: 2},
		{name: "ciphertext", index: 3},
	}

	for _, seg := range segments {
		for i := range parts[seg.index] {
			mutated := append([]string(nil), parts...)
			b := []byte(mutated[seg.index])
			if b[i] == '0' {
				b[i] = '1'
			} else {
				b[i] = '0'
			}
			mutated[seg.index] = string(b)

			if _, err := enc.Decrypt(strings.Join(mutated, ":")); !errors.Is(err, errs.ErrDecryption) {
				t.Fatalf("%s char %d: expected ErrDecryption, got %v", seg.name, i, err)
			}
		}
	}
}
