package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
	"github.com/kodkids/site-api/pkg/validation"
)

type contactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context, limit int) ([]models.ContactMessage, error)
}

type contactNotifier interface {
	ContactReceived(ctx context.Context, msg models.ContactMessage) error
}

// ContactService stores contact form messages and forwards them to the office.
type ContactService struct {
	repo      contactRepository
	notifier  contactNotifier
	validator *validation.Validator
	logger    *zap.Logger
}

// NewContactService constructs the service.
func NewContactService(repo contactRepository, notifier contactNotifier, validator *validation.Validator, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New("en")
	}
	return &ContactService{repo: repo, notifier: notifier, validator: validator, logger: logger}
}

// Submit stores a contact message. A failed notification does not fail the submission.
func (s *ContactService) Submit(ctx context.Context, req dto.ContactRequest) (*models.ContactMessage, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Body = strings.TrimSpace(req.Body)
	if err := validateStruct(s.validator, req, "please check the highlighted fields"); err != nil {
		return nil, err
	}
	msg := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   optional(req.Phone),
		Subject: optional(strings.TrimSpace(req.Subject)),
		Body:    req.Body,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "we couldn't send your message, please try again")
	}
	if s.notifier != nil {
		if err := s.notifier.ContactReceived(ctx, *msg); err != nil {
			s.logger.Warn("failed to enqueue contact notification", zap.String("contact_id", msg.ID), zap.Error(err))
		}
	}
	return msg, nil
}

// List returns recent contact messages for the back office.
func (s *ContactService) List(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	messages, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contact messages")
	}
	if messages == nil {
		messages = []models.ContactMessage{}
	}
	return messages, nil
}
