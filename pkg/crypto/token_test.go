package crypto

import (
	"encoding/hex"
	"testing"
)

func TestHashToken_Format(t *testing.T) {
	// Act
	hash := HashToken("some.bearer.token")

	// Assert
	if len(hash) != 64 {
		t.Errorf("HashToken() length = %d, want 64", len(hash))
	}
	if _, err := hex.DecodeString(hash); err != nil {
		t.Errorf("HashToken() is not hex: %v", err)
	}
	if hash != HashToken("some.bearer.token") {
		t.Error("HashToken() should be deterministic")
	}
	if hash == HashToken("some.bearer.tokem") {
		t.Error("HashToken() should differ for different tokens")
	}
}

func TestVerifyToken_ValidateToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		hash    string
		wantErr bool
		wantOk  bool
	}{
		{name: "matching token", token: "abc", hash: HashToken("abc"), wantOk: true},
		{name: "different token", token: "abd", hash: HashToken("abc"), wantOk: false},
		{name: "raw token as hash", token: "abc", hash: "abc", wantOk: false},
		{name: "empty token", token: "", hash: HashToken("abc"), wantErr: true},
		{name: "empty hash", token: "abc", hash: "", wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			ok, err := VerifyToken(test.token, test.hash)

			// Assert
			if (err != nil) != test.wantErr {
				t.Fatalf("VerifyToken() error = %v, wantErr %v", err, test.wantErr)
			}
			if !test.wantErr && ok != test.wantOk {
				t.Errorf("VerifyToken() = %v, want %v", ok, test.wantOk)
			}
		})
	}
}
