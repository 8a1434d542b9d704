// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package sui

import (
	"testing"
)

func TestParseTypeTag(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "plain struct",
			in:   "0x2::sui::SUI",
			want: "0x2::sui::SUI",
		},
		{
			name: "one type param",
			in:   "0xabc::market::LPToken<0x2::sui::SUI>",
			want: "0xabc::market::LPToken<0x2::sui::SUI>",
		},
		{
			name: "nested params",
			in:   "0xabc::market::LPToken<0xdef::wrap::W<0x2::sui::SUI>>",
			want: "0xabc::market::LPToken<0xdef::wrap::W<0x2::sui::SUI>>",
		},
		{
			name: "two params",
			in:   "0xabc::pair::Pool<0x2::sui::SUI, 0x3::usdc::USDC>",
			want: "0xabc::pair::Pool<0x2::sui::SUI, 0x3::usdc::USDC>",
		},
		{
			name: "primitive",
			in:   "u64",
			want: "u64",
		},
		{name: "empty", in: "", wantErr: true},
		{name: "missing segments", in: "0x2::sui", wantErr: true},
		{name: "unbalanced", in: "0x2::a::B<0x2::c::D", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := ParseTypeTag(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTypeTag(%q) should fail", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTypeTag(%q) error = %v", tt.in, err)
			}
			if tag.String() != tt.want {
				t.Errorf("ParseTypeTag(%q).String() = %q, want %q", tt.in, tag.String(), tt.want)
			}
		})
	}
}

func TestTypeParams(t *testing.T) {
	params, err := TypeParams("0xabc::market_factory::MarketCreated<0x2::sui::SUI>")
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 1 || params[0] != "0x2::sui::SUI" {
		t.Errorf("TypeParams = %v, want [0x2::sui::SUI]", params)
	}

	params, err = TypeParams("0xabc::market_factory::FactoryInit")
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 0 {
		t.Errorf("TypeParams = %v, want empty", params)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0x2::sui::SUI", "SUI"},
		{"0xabc::market::LPToken<0x2::sui::SUI>", "LPToken"},
		{"SUI", "SUI"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddressBytes(t *testing.T) {
	b, err := AddressBytes("0x2")
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 32 || b[31] != 2 {
		t.Errorf("AddressBytes(0x2) = %x, want 31 zero bytes then 02", b)
	}

	if _, err := AddressBytes("0xzz"); err == nil {
		t.Error("AddressBytes of non-hex should fail")
	}
	if _, err := AddressBytes(""); err == nil {
		t.Error("AddressBytes of empty string should fail")
	}
}
