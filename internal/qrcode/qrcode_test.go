package qrcode

import (
	"errors"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "upper", in: "ABCDEFGHIJ1234567", want: "ABCDEFGHIJ1234567"},
		{name: "lower is upper-cased", in: "abcdefghij1234567", want: "ABCDEFGHIJ1234567"},
		{name: "surrounding space trimmed", in: "  AAAAAAAAAAAAAAAAA ", want: "AAAAAAAAAAAAAAAAA"},
		{name: "too short", in: "ABC", wantErr: true},
		{name: "too long", in: "ABCDEFGHIJ12345678", wantErr: true},
		{name: "symbol", in: "ABCDEFGHIJ-234567", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrInvalidRequest) {
					t.Fatalf("expected invalid request, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
