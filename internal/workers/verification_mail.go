package workers

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/gcopy-dev/gcopy/internal/mailer"
	"github.com/gcopy-dev/gcopy/internal/tasks"
)

// HandleSendVerificationCode mails the login code carried by t
func HandleSendVerificationCode(ctx context.Context, t *asynq.Task, sender mailer.Sender, logger zerolog.Logger) error {
	payload, err := tasks.ParseVerificationCodePayload(t)
	if err != nil {
		// malformed payloads never succeed on retry
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	msg := mailer.VerificationCode(payload.Email, payload.Code, payload.Language, payload.UserAgent)
	if err := sender.Send(msg); err != nil {
		logger.Error().Err(err).Str("email", payload.Email).Msg("Failed to send verification code")
		return err
	}

	logger.Info().Str("email", payload.Email).Msg("Verification code sent")
	return nil
}
