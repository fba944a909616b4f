package auth

import (
	"context"
	"log/slog"
)

// LogNotifier logs codes instead of sending SMS. The real provider hangs off
// the Notifier interface outside this repository.
type LogNotifier struct{}

func (LogNotifier) SendOTP(_ context.Context, phone, code string) error {
	slog.Info("otp issued", "phone", phone, "code", code)
	return nil
}
