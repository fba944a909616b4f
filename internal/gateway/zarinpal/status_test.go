package zarinpal

import (
	"strings"
	"testing"
)

func TestStatusMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code int
		want string
	}{
		{
			name: "success",
			code: 100,
			want: statusMessages[100],
		},
		{
			name: "already_verified",
			code: 101,
			want: statusMessages[101],
		},
		{
			name: "merchant_invalid",
			code: 102,
			want: statusMessages[102],
		},
		{
			name: "session_not_payable",
			code: 203,
			want: statusMessages[203],
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := StatusMessage(tt.code)
			if got != tt.want {
				t.Fatalf("StatusMessage(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestStatusMessage_UnknownCode(t *testing.T) {
	t.Parallel()

	got := StatusMessage(-42)
	if !strings.Contains(got, "-42") {
		t.Fatalf("unknown code message should carry the code, got %q", got)
	}
}

func TestIsVerified(t *testing.T) {
	t.Parallel()

	if !IsVerified(CodeSuccess) {
		t.Fatal("code 100 must count as verified")
	}
	if !IsVerified(CodeAlreadyVerified) {
		t.Fatal("code 101 must count as verified")
	}
	if IsVerified(102) {
		t.Fatal("code 102 must not count as verified")
	}
}
