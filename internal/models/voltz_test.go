package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseVoltz(t *testing.T) {
	tests := []struct {
		in      string
		want    Voltz
		wantErr bool
	}{
		{"0", 0, false},
		{"1", 1000, false},
		{"12.5", 12500, false},
		{" 0.001 ", 1, false},
		{"-3", -3000, false},
		{"0.0001", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseVoltz(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseVoltz(%q) expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseVoltz(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVoltz(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestVoltzString(t *testing.T) {
	tests := []struct {
		v    Voltz
		want string
	}{
		{0, "0"},
		{NewVoltz(40), "40"},
		{12500, "12.5"},
		{1, "0.001"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("Voltz(%d).String() = %q, want %q", int64(tt.v), got, tt.want)
		}
	}
}

func TestVoltzFromDecimal(t *testing.T) {
	got, err := VoltzFromDecimal(decimal.RequireFromString("2.25"))
	if err != nil {
		t.Fatalf("VoltzFromDecimal failed: %v", err)
	}
	if got != 2250 {
		t.Errorf("Expected 2250, got %d", got)
	}
}

func TestVoltzJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Amount Voltz `json:"amount"`
	}{Amount: 12500})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"amount":"12.5"}` {
		t.Errorf("Unexpected JSON: %s", data)
	}

	var decoded struct {
		Amount Voltz `json:"amount"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Amount != 12500 {
		t.Errorf("Expected 12500, got %d", decoded.Amount)
	}
}
