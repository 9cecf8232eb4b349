package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"meetupbot/internal/domain"
)

type speakerApplicationService struct {
	repo           domain.SpeakerApplicationRepository
	eventRepo      domain.EventRepository
	participants   domain.ParticipantRepository
	notifier       domain.Notifier
	emailService   domain.EmailService
	organizerEmail string
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

// NewSpeakerApplicationService creates the service. emailService may be nil, and an
// empty organizerEmail disables the mail alert.
func NewSpeakerApplicationService(
	repo domain.SpeakerApplicationRepository,
	eventRepo domain.EventRepository,
	participants domain.ParticipantRepository,
	notifier domain.Notifier,
	emailService domain.EmailService,
	organizerEmail string,
	logger *slog.Logger,
	now func() time.Time,
	timeout time.Duration,
) domain.SpeakerApplicationService {
	if now == nil {
		now = time.Now
	}
	return &speakerApplicationService{
		repo:           repo,
		eventRepo:      eventRepo,
		participants:   participants,
		notifier:       notifier,
		emailService:   emailService,
		organizerEmail: organizerEmail,
		logger:         logger,
		now:            now,
		contextTimeout: timeout,
	}
}

func (s *speakerApplicationService) Submit(ctx context.Context, participant *domain.Participant, eventID, topic, contact string) (*domain.SpeakerApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	topic = strings.TrimSpace(topic)
	contact = strings.TrimSpace(contact)
	if participant == nil || topic == "" || contact == "" {
		return nil, domain.ErrInvalidInput
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.IsPublished {
		return nil, fmt.Errorf("%w: event is no longer open for applications", domain.ErrInvalidInput)
	}

	now := s.now()
	app := &domain.SpeakerApplication{
		ParticipantID: participant.ID,
		Participant:   participant,
		EventID:       event.ID,
		EventName:     event.Name,
		Topic:         topic,
		Contact:       contact,
		Status:        domain.ApplicationNew,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.alertOrganizers(ctx, app)
	s.sendEmail(ctx, app)
	return app, nil
}

func (s *speakerApplicationService) alertOrganizers(ctx context.Context, app *domain.SpeakerApplication) {
	organizers, err := s.participants.ListOrganizers(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "list organizers failed", "application_id", app.ID, "error", err)
		return
	}
	msg := domain.OutgoingMessage{
		Text: fmt.Sprintf("New speaker application for %s\n\nTopic: %s\nContact: %s\nFrom: %s",
			app.EventName, app.Topic, app.Contact, app.Participant.DisplayName()),
		Buttons: [][]domain.Button{{{Text: "Mark reviewed", Data: "app_reviewed:" + app.ID}}},
	}
	s.notifier.Broadcast(ctx, organizers, msg)
}

func (s *speakerApplicationService) sendEmail(ctx context.Context, app *domain.SpeakerApplication) {
	if s.emailService == nil || s.organizerEmail == "" {
		return
	}
	err := s.emailService.SendSpeakerApplication(ctx, &domain.SpeakerApplicationEmailData{
		To:            s.organizerEmail,
		EventName:     app.EventName,
		ApplicantName: app.Participant.DisplayName(),
		ApplicantTag:  app.Participant.Handle(),
		Topic:         app.Topic,
		Contact:       app.Contact,
		ApplicationID: app.ID,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "speaker application email failed", "application_id", app.ID, "error", err)
	}
}

func (s *speakerApplicationService) MarkReviewed(ctx context.Context, actor *domain.Participant, id string) (*domain.SpeakerApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor == nil || !actor.IsOrganizer {
		return nil, domain.ErrForbidden
	}
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app.Status == domain.ApplicationReviewed {
		return app, nil
	}
	if err := s.repo.SetStatus(ctx, id, domain.ApplicationReviewed); err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	app.Status = domain.ApplicationReviewed
	return app, nil
}

func (s *speakerApplicationService) ListNew(ctx context.Context) ([]*domain.SpeakerApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	out, err := s.repo.ListByStatus(ctx, domain.ApplicationNew)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}
