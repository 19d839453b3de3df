package password

import (
	"errors"
	"strings"
	"testing"
)

// Low-cost params so the test suite stays fast.
func testHasher() *Hasher {
	return NewHasher(Params{Memory: 8 * 1024, Time: 1, Parallelism: 1})
}

func TestHashAndVerify(t *testing.T) {
	h := testHasher()

	stored, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(stored, "$argon2id$") {
		t.Errorf("hash = %q, want argon2id PHC format", stored)
	}

	ok, err := h.Verify("correct horse battery staple", stored)
	if err != nil || !ok {
		t.Errorf("Verify(correct) = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = h.Verify("wrong password", stored)
	if err != nil {
		t.Fatalf("Verify(wrong): %v", err)
	}
	if ok {
		t.Error("wrong password verified")
	}
}

func TestHash_UniqueSalts(t *testing.T) {
	h := testHasher()

	a, err := h.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Error("identical hashes for the same password, salt not random")
	}
}

func TestVerify_InvalidHash(t *testing.T) {
	h := testHasher()

	for _, stored := range []string{
		"",
		"plaintext",
		"$bcrypt$whatever",
		"$argon2id$v=19$m=8192,t=1,p=1$notbase64!!$x",
	} {
		if _, err := h.Verify("pw", stored); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("Verify with stored=%q: err = %v, want ErrInvalidHash", stored, err)
		}
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	if _, err := testHasher().Hash(""); err == nil {
		t.Error("empty password accepted")
	}
}
