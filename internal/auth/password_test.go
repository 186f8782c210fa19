package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	digest, err := h.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if digest == "Sup3rSecret" {
		t.Fatal("digest equals plaintext")
	}
	if !h.Verify("Sup3rSecret", digest) {
		t.Error("Verify: correct password rejected")
	}
	if h.Verify("wrongpass1", digest) {
		t.Error("Verify: wrong password accepted")
	}
}

func TestPasswordHasher_Salted(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	d1, err := h.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	d2, err := h.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if d1 == d2 {
		t.Error("two hashes of the same password are identical (no salt?)")
	}
	if !h.Verify("Sup3rSecret", d1) || !h.Verify("Sup3rSecret", d2) {
		t.Error("both digests should verify")
	}
}

func TestPasswordHasher_MalformedDigest(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	if h.Verify("anything", "not-a-bcrypt-digest") {
		t.Error("malformed digest verified")
	}
	if h.Verify("anything", "") {
		t.Error("empty digest verified")
	}
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	h := NewPasswordHasher(9999)
	if h.cost != bcrypt.DefaultCost {
		t.Errorf("cost not clamped: got %d", h.cost)
	}
	h = NewPasswordHasher(0)
	if h.cost != bcrypt.DefaultCost {
		t.Errorf("cost not clamped: got %d", h.cost)
	}
}
