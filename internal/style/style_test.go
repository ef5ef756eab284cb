package style

import (
	"bytes"
	"strings"
	"testing"
)

// TestParseMode verifies accepted and rejected color modes.
func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Auto, false},
		{"auto", Auto, false},
		{"always", Always, false},
		{"never", Never, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestNew_Always verifies forced color emits escape sequences.
func TestNew_Always(t *testing.T) {
	s := New(Always, &bytes.Buffer{})
	if !s.Enabled() {
		t.Fatal("should be enabled")
	}
	if got := s.Fatal.Sprint(">"); !strings.Contains(got, "\x1b[") {
		t.Errorf("expected escape sequence, got %q", got)
	}
}

// TestNew_Never verifies disabled color leaves text untouched.
func TestNew_Never(t *testing.T) {
	s := New(Never, &bytes.Buffer{})
	for _, c := range []interface{ Sprint(...interface{}) string }{s.Fatal, s.Bad, s.Good, s.Ok} {
		if got := c.Sprint("x"); got != "x" {
			t.Errorf("got %q, want plain text", got)
		}
	}
}

// TestNew_AutoOnBuffer verifies a non-terminal writer gets no color.
func TestNew_AutoOnBuffer(t *testing.T) {
	if New(Auto, &bytes.Buffer{}).Enabled() {
		t.Error("a buffer is not a terminal")
	}
	if Plain().Enabled() {
		t.Error("Plain should never color")
	}
}

// TestNew_Independent verifies two Styles do not share state.
func TestNew_Independent(t *testing.T) {
	on := New(Always, nil)
	off := New(Never, nil)
	if on.Fatal.Sprint("x") == off.Fatal.Sprint("x") {
		t.Error("styles should be independent")
	}
}
