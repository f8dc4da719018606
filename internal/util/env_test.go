package util

import "testing"

func TestGetenvDefault(t *testing.T) {
	t.Setenv("VOXA_TEST_KEY", "value")
	if got := GetenvDefault("VOXA_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("expected 'value', got %q", got)
	}
	if got := GetenvDefault("VOXA_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("expected 'fallback', got %q", got)
	}
}

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"off", true, false},
		{"0", true, false},
		{"garbage", true, true},
		{"", false, false},
	}
	for _, tc := range cases {
		t.Setenv("VOXA_TEST_BOOL", tc.val)
		if got := ParseBoolEnv("VOXA_TEST_BOOL", tc.def); got != tc.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tc.val, tc.def, got, tc.want)
		}
	}
}

func TestParseIntEnv(t *testing.T) {
	t.Setenv("VOXA_TEST_INT", "42")
	if got := ParseIntEnv("VOXA_TEST_INT", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	t.Setenv("VOXA_TEST_INT", "not a number")
	if got := ParseIntEnv("VOXA_TEST_INT", 7); got != 7 {
		t.Errorf("expected default 7, got %d", got)
	}
}
