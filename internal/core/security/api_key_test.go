package security

import (
	"strings"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	realKey, keyHash, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(realKey, "cn_live_") {
		t.Fatalf("key %q missing prefix", realKey)
	}
	if keyHash != HashKey(realKey) {
		t.Fatal("returned hash does not match the key")
	}
	if !ValidateKey(realKey, keyHash) {
		t.Fatal("key must validate against its own hash")
	}
	if ValidateKey("cn_live_wrong", keyHash) {
		t.Fatal("wrong key must not validate")
	}

	other, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if other == realKey {
		t.Fatal("keys must be unique")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("password must not be stored in plain text")
	}
	if !CheckPassword("secret1", hash) {
		t.Fatal("correct password must verify")
	}
	if CheckPassword("secret2", hash) {
		t.Fatal("wrong password must not verify")
	}
}
