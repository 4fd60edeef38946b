package password

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	Cost = bcrypt.MinCost
	defer func() { Cost = DefaultCost }()

	hash, err := Hash("s3cretpass")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !Verify("s3cretpass", hash) {
		t.Fatalf("Verify() rejected the right password")
	}
	if Verify("wrongpass1", hash) {
		t.Fatalf("Verify() accepted the wrong password")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token")
	if a != HashToken("token") {
		t.Fatalf("HashToken() is not deterministic")
	}
	if a == HashToken("other") {
		t.Fatalf("HashToken() collided for different input")
	}
	if len(a) != 64 {
		t.Fatalf("HashToken() length = %d, want 64", len(a))
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"short1", false},
		{"lettersonly", false},
		{"12345678", false},
		{"letters123", true},
	}
	for _, tt := range tests {
		if got := ValidatePassword(tt.in); got != tt.want {
			t.Fatalf("ValidatePassword(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
