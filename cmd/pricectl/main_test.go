package main

import (
	"strings"
	"testing"

	"storefront-pricing/internal/clientinfo"
	"storefront-pricing/internal/model"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		in      string
		want    model.LineRequest
		wantErr bool
	}{
		{"P1", model.LineRequest{ProductID: "P1", Quantity: 1}, false},
		{"P1:3", model.LineRequest{ProductID: "P1", Quantity: 3}, false},
		{"P2:1:XL", model.LineRequest{ProductID: "P2", VariantID: "XL", Quantity: 1}, false},
		{"P1:0", model.LineRequest{ProductID: "P1", Quantity: 0}, false},
		{":2", model.LineRequest{}, true},
		{"P1:two", model.LineRequest{}, true},
		{"P1:1:XL:extra", model.LineRequest{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLine(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLine(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLine(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLineFlagsRepeat(t *testing.T) {
	var lines lineFlags
	for _, v := range []string{"P1:2", "P2:1:V1"} {
		if err := lines.Set(v); err != nil {
			t.Fatalf("Set(%q): %v", v, err)
		}
	}
	if lines.String() != "P1:2,P2:1" {
		t.Errorf("String() = %q", lines.String())
	}
}

func TestClientHeader(t *testing.T) {
	header, err := clientHeader("")
	if err != nil {
		t.Fatalf("clientHeader: %v", err)
	}
	info, err := clientinfo.ParseHeader(header)
	if err != nil {
		t.Fatalf("ParseHeader(%q): %v", header, err)
	}
	if info.App != "pricectl" || info.Version != version || info.Preview != nil {
		t.Errorf("info = %+v", info)
	}

	header, err = clientHeader("2026-12-24T00:00:00Z")
	if err != nil {
		t.Fatalf("clientHeader: %v", err)
	}
	info, err = clientinfo.ParseHeader(header)
	if err != nil {
		t.Fatalf("ParseHeader(%q): %v", header, err)
	}
	if info.App != clientinfo.AdminApp || info.Preview == nil {
		t.Fatalf("info = %+v, want admin preview", info)
	}
	if got := info.Preview.Format("2006-01-02"); got != "2026-12-24" {
		t.Errorf("preview = %s", got)
	}

	if _, err := clientHeader("tomorrow"); err == nil || !strings.Contains(err.Error(), "-preview") {
		t.Errorf("invalid preview error = %v", err)
	}
}
