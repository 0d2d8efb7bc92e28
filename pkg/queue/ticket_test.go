package queue

import (
	"errors"
	"testing"
)

func TestParseTicket(t *testing.T) {
	tests := []struct {
		raw     string
		want    Ticket
		wantErr bool
	}{
		{raw: "1", want: 1},
		{raw: " 42 ", want: 42},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTicket(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseTicket(%q) = (%v, %v), want %v", tt.raw, got, err, tt.want)
			}
		})
	}
}
