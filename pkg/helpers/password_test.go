package helpers

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("segredo1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !IsBcryptHash(hash) {
		t.Fatalf("expected bcrypt digest, got %q", hash)
	}
	if ok, rehash := VerifyPassword(hash, "segredo1"); !ok || rehash {
		t.Errorf("expected match without rehash, got ok=%v rehash=%v", ok, rehash)
	}
	if ok, _ := VerifyPassword(hash, "segredo2"); ok {
		t.Error("wrong password must not match")
	}
}

func TestVerifyPassword_LegacyPlaintext(t *testing.T) {
	if ok, rehash := VerifyPassword("segredo1", "segredo1"); !ok || !rehash {
		t.Errorf("legacy row should match and ask for rehash, got ok=%v rehash=%v", ok, rehash)
	}
	if ok, rehash := VerifyPassword("segredo1", "Segredo1"); ok || rehash {
		t.Error("legacy compare is exact")
	}
	if ok, _ := VerifyPassword("", ""); ok {
		t.Error("empty stored credential never matches")
	}
}
