package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/pkg/jobs"
	"github.com/kodkids/site-api/pkg/mailer"
)

const (
	jobRegistrationAdmin   = "registration.admin"
	jobRegistrationConfirm = "registration.confirmation"
	jobContactAdmin        = "contact.admin"
)

// NotificationConfig configures outgoing notification emails.
type NotificationConfig struct {
	AdminAddress string
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
}

// NotificationService delivers office and visitor emails from a background queue so a slow mail
// provider never delays a form submission.
type NotificationService struct {
	sender  mailer.Sender
	admin   *mail.Address
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. Call Start before enqueueing.
func NewNotificationService(sender mailer.Sender, cfg NotificationConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{sender: sender, metrics: metrics, logger: logger}
	if cfg.AdminAddress != "" {
		if addr, err := mail.ParseAddress(cfg.AdminAddress); err == nil {
			s.admin = addr
		} else {
			logger.Warn("ignoring invalid admin address", zap.String("address", cfg.AdminAddress), zap.Error(err))
		}
	}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// RegistrationSubmitted notifies the office and sends the registrant a confirmation.
func (s *NotificationService) RegistrationSubmitted(ctx context.Context, reg models.Registration) error {
	if s.admin != nil {
		if _, err := s.queue.Enqueue(ctx, jobs.Job{Type: jobRegistrationAdmin, Payload: reg}); err != nil {
			return err
		}
	}
	_, err := s.queue.Enqueue(ctx, jobs.Job{Type: jobRegistrationConfirm, Payload: reg})
	return err
}

// ContactReceived forwards a contact form message to the office.
func (s *NotificationService) ContactReceived(ctx context.Context, msg models.ContactMessage) error {
	if s.admin == nil {
		s.logger.Info("no admin address configured, contact message stored only", zap.String("contact_id", msg.ID))
		return nil
	}
	_, err := s.queue.Enqueue(ctx, jobs.Job{Type: jobContactAdmin, Payload: msg})
	return err
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	msg, err := s.compose(job)
	if err != nil {
		s.logger.Error("dropping notification", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
		return nil
	}
	err = s.sender.Send(ctx, msg)
	s.metrics.RecordNotification(job.Type, err)
	return err
}

func (s *NotificationService) compose(job jobs.Job) (mailer.Message, error) {
	switch job.Type {
	case jobRegistrationAdmin:
		reg, ok := job.Payload.(models.Registration)
		if !ok {
			return mailer.Message{}, fmt.Errorf("unexpected payload %T", job.Payload)
		}
		return registrationAdminMessage(*s.admin, reg), nil
	case jobRegistrationConfirm:
		reg, ok := job.Payload.(models.Registration)
		if !ok {
			return mailer.Message{}, fmt.Errorf("unexpected payload %T", job.Payload)
		}
		return registrationConfirmationMessage(reg), nil
	case jobContactAdmin:
		contact, ok := job.Payload.(models.ContactMessage)
		if !ok {
			return mailer.Message{}, fmt.Errorf("unexpected payload %T", job.Payload)
		}
		return contactAdminMessage(*s.admin, contact), nil
	}
	return mailer.Message{}, fmt.Errorf("unknown notification type %q", job.Type)
}

func registrationAdminMessage(admin mail.Address, reg models.Registration) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "New registration for %s\n\n", reg.Course)
	fmt.Fprintf(&b, "Name: %s\nPhone: %s\nEmail: %s\n", reg.Name, reg.Phone, reg.Email)
	fmt.Fprintf(&b, "Location: %s\nTime: %s\n", reg.Location, reg.Time)
	if reg.Period != nil {
		fmt.Fprintf(&b, "Period: %s\n", *reg.Period)
	}
	fmt.Fprintf(&b, "Grade: %s\nGender: %s\n", reg.Grade, reg.Gender)
	if reg.Message != nil {
		fmt.Fprintf(&b, "\nMessage:\n%s\n", *reg.Message)
	}
	msg := mailer.Message{
		To:       []mail.Address{admin},
		Subject:  fmt.Sprintf("New registration: %s (%s)", reg.Name, reg.Course),
		TextBody: b.String(),
	}
	if reg.Email != "" {
		msg.ReplyTo = &mail.Address{Name: reg.Name, Address: reg.Email}
	}
	return msg
}

func registrationConfirmationMessage(reg models.Registration) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", reg.Name)
	fmt.Fprintf(&b, "Thanks for registering for %s at %s (%s).\n", reg.Course, reg.Location, reg.Time)
	b.WriteString("Our team will contact you shortly to confirm the details.\n")
	return mailer.Message{
		To:       []mail.Address{{Name: reg.Name, Address: reg.Email}},
		Subject:  "We received your registration for " + reg.Course,
		TextBody: b.String(),
	}
}

func contactAdminMessage(admin mail.Address, contact models.ContactMessage) mailer.Message {
	subject := "New message from " + contact.Name
	if contact.Subject != nil && *contact.Subject != "" {
		subject = *contact.Subject + " (" + contact.Name + ")"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", contact.Name, contact.Email)
	if contact.Phone != nil {
		fmt.Fprintf(&b, "Phone: %s\n", *contact.Phone)
	}
	fmt.Fprintf(&b, "\n%s\n", contact.Body)
	return mailer.Message{
		To:       []mail.Address{admin},
		ReplyTo:  &mail.Address{Name: contact.Name, Address: contact.Email},
		Subject:  subject,
		TextBody: b.String(),
	}
}
