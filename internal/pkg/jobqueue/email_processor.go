package jobqueue

import (
	"context"
	"fmt"

	"github.com/launchkit/launchkit/internal/pkg/env"
	"github.com/launchkit/launchkit/internal/pkg/mail"
)

// ProcessEmailJob renders and sends one transactional email.
func ProcessEmailJob(ctx context.Context, job *Job) error {
	_ = ctx
	payload, err := EmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid email job payload: %w", err)
	}
	if payload.To == "" {
		return fmt.Errorf("email job %s has no recipient", job.ID)
	}

	appName := env.GetEnv("APP_NAME", "LaunchKit")
	appURL := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")

	switch payload.Kind {
	case EmailKindWelcome:
		subject := fmt.Sprintf("Welcome to %s", appName)
		body := fmt.Sprintf(
			"<h1>Welcome, %s!</h1><p>Your %s account is ready.</p><p><a href=\"%s/app\">Open your dashboard</a></p>",
			payload.Name, appName, appURL,
		)
		return mail.SendMail(payload.To, subject, body)

	case EmailKindActivation:
		if payload.ActivationToken == "" {
			return fmt.Errorf("activation email job %s has no token", job.ID)
		}
		subject := fmt.Sprintf("Activate your %s account", appName)
		body := fmt.Sprintf(
			"<h1>Hi %s,</h1><p>Confirm your email address to activate your account:</p><p><a href=\"%s/activate?token=%s\">Activate account</a></p>",
			payload.Name, appURL, payload.ActivationToken,
		)
		return mail.SendMail(payload.To, subject, body)
	}
	return fmt.Errorf("unknown email kind: %s", payload.Kind)
}
