package types

import "testing"

func TestParseJMBGAcceptsValidChecksum(t *testing.T) {
	jmbg, err := ParseJMBG("0101990500003")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jmbg.String() != "0101990500003" {
		t.Errorf("expected String to round-trip the input, got %s", jmbg.String())
	}
}

func TestParseJMBGRejectsWrongLength(t *testing.T) {
	if _, err := ParseJMBG("12345"); err == nil {
		t.Fatal("expected error for a JMBG that is not 13 digits")
	}
}

func TestParseJMBGRejectsNonDigits(t *testing.T) {
	if _, err := ParseJMBG("010199050000a"); err == nil {
		t.Fatal("expected error for a JMBG containing a non-digit character")
	}
}

func TestParseJMBGRejectsBadChecksum(t *testing.T) {
	if _, err := ParseJMBG("0101990500009"); err == nil {
		t.Fatal("expected error for a JMBG with an incorrect checksum digit")
	}
}

func TestJMBGMasked(t *testing.T) {
	jmbg, err := ParseJMBG("0101990500003")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	masked := jmbg.Masked()
	if masked != "0101990******" {
		t.Errorf("expected masked form to reveal only the first 7 digits, got %s", masked)
	}
}

func TestJMBGIsZero(t *testing.T) {
	var empty JMBG
	if !empty.IsZero() {
		t.Error("expected empty JMBG to report IsZero true")
	}
	jmbg, _ := ParseJMBG("0101990500003")
	if jmbg.IsZero() {
		t.Error("expected a parsed JMBG to report IsZero false")
	}
}
