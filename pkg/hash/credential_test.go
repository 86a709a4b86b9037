package hash

import "testing"

func TestVerifyCredentialsPlaintext(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		want     bool
	}{
		{"correct pair", "admin", "s3cret", true},
		{"wrong password", "admin", "guess", false},
		{"wrong username", "root", "s3cret", false},
		{"both wrong", "root", "guess", false},
		{"empty password", "admin", "", false},
		{"empty pair", "", "", false},
		{"password prefix only", "admin", "s3c", false},
		{"password with suffix", "admin", "s3cret!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyCredentials("admin", "s3cret", tt.user, tt.password)
			if got != tt.want {
				t.Errorf("VerifyCredentials() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyCredentialsBcrypt(t *testing.T) {
	hashed, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !VerifyCredentials("admin", hashed, "admin", "s3cret") {
		t.Error("expected bcrypt-hashed password to verify")
	}
	if VerifyCredentials("admin", hashed, "admin", "wrong") {
		t.Error("expected wrong password to fail against bcrypt hash")
	}
	// The literal hash string must not be accepted as the password.
	if VerifyCredentials("admin", hashed, "admin", hashed) {
		t.Error("hash string itself must not verify")
	}
}

func TestEqual(t *testing.T) {
	if !Equal("same", "same") {
		t.Error("Equal() = false for identical strings")
	}
	if Equal("same", "different") {
		t.Error("Equal() = true for differing strings")
	}
	if Equal("", "nonempty") {
		t.Error("Equal() = true for differing lengths")
	}
	if !Equal("", "") {
		t.Error("Equal() = false for two empty strings")
	}
}
