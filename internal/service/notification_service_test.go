package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/pkg/mailer"
)

func startNotifications(t *testing.T, admin string) (*NotificationService, *mailer.ConsoleSender) {
	t.Helper()
	sender := mailer.NewConsoleSender(nil)
	svc := NewNotificationService(sender, NotificationConfig{AdminAddress: admin, Workers: 1, RetryDelay: time.Millisecond}, nil, nil)
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc, sender
}

func TestNotificationServiceRegistrationEmails(t *testing.T) {
	svc, sender := startNotifications(t, "Office <office@kodkids.id>")
	period := "Spring 2025"
	reg := models.Registration{
		ID: "reg-1", Name: "Ana", Phone: "0812", Email: "ana@example.com",
		Course: "Python for Kids", Location: "Center A", Time: "Sunday 17:00", Period: &period,
	}

	require.NoError(t, svc.RegistrationSubmitted(context.Background(), reg))
	require.Eventually(t, func() bool { return len(sender.Sent()) == 2 }, time.Second, 5*time.Millisecond)

	bySubject := map[string]mailer.Message{}
	for _, msg := range sender.Sent() {
		bySubject[msg.Subject] = msg
	}
	admin, ok := bySubject["New registration: Ana (Python for Kids)"]
	require.True(t, ok)
	assert.Equal(t, "office@kodkids.id", admin.To[0].Address)
	require.NotNil(t, admin.ReplyTo)
	assert.Equal(t, "ana@example.com", admin.ReplyTo.Address)
	assert.Contains(t, admin.TextBody, "Period: Spring 2025")

	confirm, ok := bySubject["We received your registration for Python for Kids"]
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", confirm.To[0].Address)
}

func TestNotificationServiceWithoutAdminAddress(t *testing.T) {
	svc, sender := startNotifications(t, "")

	require.NoError(t, svc.ContactReceived(context.Background(), models.ContactMessage{ID: "c1", Name: "Ana", Email: "ana@example.com", Body: "Hi"}))
	require.NoError(t, svc.RegistrationSubmitted(context.Background(), models.Registration{Name: "Ana", Email: "ana@example.com", Course: "Scratch"}))

	require.Eventually(t, func() bool { return len(sender.Sent()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "We received your registration for Scratch", sender.Sent()[0].Subject)
}

func TestNotificationServiceContactEmail(t *testing.T) {
	svc, sender := startNotifications(t, "office@kodkids.id")
	subject := "Trial class"
	phone := "0812"

	require.NoError(t, svc.ContactReceived(context.Background(), models.ContactMessage{ID: "c1", Name: "Ana", Email: "ana@example.com", Phone: &phone, Subject: &subject, Body: "Can my son join?"}))
	require.Eventually(t, func() bool { return len(sender.Sent()) == 1 }, time.Second, 5*time.Millisecond)

	msg := sender.Sent()[0]
	assert.Equal(t, "Trial class (Ana)", msg.Subject)
	assert.Contains(t, msg.TextBody, "Phone: 0812")
	assert.Contains(t, msg.TextBody, "Can my son join?")
}
