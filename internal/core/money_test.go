package core

import (
	"encoding/json"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"123.45", "123.45", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"-40.10", "-40.1", true},
		{"0.001", "0.001", true},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got.String(), err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyJSONKeepsExactDecimal(t *testing.T) {
	var acc AccountInput
	if err := json.Unmarshal([]byte(`{"name":"Checking","type":"bank","balance":"123.45","budget_id":"b"}`), &acc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(acc.Balance)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"123.45"` {
		t.Fatalf("expected \"123.45\", got %s", out)
	}
	if !acc.Balance.Equal(MustParseMoney("123.45")) {
		t.Fatalf("value drifted: %s", acc.Balance)
	}
}

func TestMoneyJSONBareNumber(t *testing.T) {
	var m Money
	// 0.1 + 0.2 style values must not pick up binary float noise.
	if err := json.Unmarshal([]byte(`0.30000000000000001`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.String() != "0.30000000000000001" {
		t.Fatalf("unexpected value %s", m.String())
	}
	if err := json.Unmarshal([]byte(`"not-money"`), &m); err == nil {
		t.Fatalf("expected error for invalid amount")
	}
}
