package crypto

import "testing"

func TestVerifier(t *testing.T) {
	v, err := NewVerifier("abc123", 1000)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	if !v.Check("abc123") {
		t.Error("Check() rejected the right password")
	}
	if v.Check("abc124") {
		t.Error("Check() accepted a wrong password")
	}

	parsed, err := ParseVerifier(v.String())
	if err != nil {
		t.Fatalf("ParseVerifier() error = %v", err)
	}
	if !parsed.Equal(v) {
		t.Errorf("ParseVerifier(String()) = %v, want %v", parsed, v)
	}
	if !parsed.Check("abc123") {
		t.Error("parsed verifier rejected the right password")
	}
}

func TestVerifier_SaltedPerCall(t *testing.T) {
	a, _ := NewVerifier("same", 1000)
	b, _ := NewVerifier("same", 1000)
	if a.Equal(b) {
		t.Error("two verifiers of the same password are identical")
	}
}

func TestParseVerifier_Invalid(t *testing.T) {
	for _, s := range []string{
		"",
		"plain-password",
		"md5$1$AA$AA",
		"pbkdf2-sha256$0$AA$AA",
		"pbkdf2-sha256$x$AA$AA",
		"pbkdf2-sha256$10$!!$AA",
		"pbkdf2-sha256$10$AA$",
	} {
		if _, err := ParseVerifier(s); err == nil {
			t.Errorf("ParseVerifier(%q) succeeded", s)
		}
	}
}

func TestNilVerifier(t *testing.T) {
	var v *Verifier
	if v.Check("") {
		t.Error("nil verifier accepted a password")
	}
	if v.String() != "" {
		t.Error("nil verifier has a string form")
	}
}
