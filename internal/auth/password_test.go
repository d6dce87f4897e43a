package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword_SaltedDigests(t *testing.T) {
	h1, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if h1 == h2 {
		t.Error("two hashes of the same password must differ (random salt)")
	}
	if !strings.HasPrefix(h1, "$argon2id$") {
		t.Errorf("unexpected digest format: %s", h1)
	}
}

func TestVerifyPassword(t *testing.T) {
	digest, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := VerifyPassword("s3cret-password", digest)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Error("correct password rejected")
	}

	ok, err = VerifyPassword("wrong-password", digest)
	if err != nil {
		t.Fatalf("VerifyPassword with wrong password must not error, got %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	for _, digest := range []string{
		"",
		"plaintext",
		"$bcrypt$whatever",
		"$argon2id$v=19$m=65536,t=1,p=4$not-base64!$zzz",
	} {
		if _, err := VerifyPassword("anything", digest); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("digest %q: got err %v, want ErrMalformedHash", digest, err)
		}
	}
}
