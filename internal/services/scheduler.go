package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetupbot/internal/domain"
)

type talkScheduler struct {
	talkRepo       domain.TalkRepository
	questionRepo   domain.QuestionRepository
	now            func() time.Time
	contextTimeout time.Duration
}

// NewTalkScheduler returns a TalkScheduler. now may be nil, in which case time.Now is used.
func NewTalkScheduler(talkRepo domain.TalkRepository, questionRepo domain.QuestionRepository, now func() time.Time, timeout time.Duration) domain.TalkScheduler {
	if now == nil {
		now = time.Now
	}
	return &talkScheduler{
		talkRepo:       talkRepo,
		questionRepo:   questionRepo,
		now:            now,
		contextTimeout: timeout,
	}
}

func (s *talkScheduler) Get(ctx context.Context, talkID string) (*domain.Talk, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	talk, err := s.talkRepo.GetByID(ctx, talkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get talk: %w", err)
	}
	return talk, nil
}

func (s *talkScheduler) ResolveCurrent(ctx context.Context, event *domain.Event) (*domain.Talk, error) {
	if event == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	talks, err := s.talkRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list talks: %w", err)
	}
	return resolveCurrent(event, talks, s.now()), nil
}

// resolveCurrent picks the on-stage talk: the pinned pointer, then the is_current
// flag, then in-progress status, then the time window, then the last started talk.
// Terminal talks never qualify.
func resolveCurrent(event *domain.Event, talks []*domain.Talk, now time.Time) *domain.Talk {
	if event.CurrentTalkID != nil {
		for _, t := range talks {
			if t.ID == *event.CurrentTalkID && !t.IsTerminal() {
				return t
			}
		}
	}

	var live []*domain.Talk
	for _, t := range talks {
		if !t.IsTerminal() {
			live = append(live, t)
		}
	}

	latest := func(keep func(*domain.Talk) bool) *domain.Talk {
		var best *domain.Talk
		for _, t := range live {
			if keep(t) && (best == nil || t.StartAt.After(best.StartAt)) {
				best = t
			}
		}
		return best
	}

	if t := latest(func(t *domain.Talk) bool { return t.IsCurrent }); t != nil {
		return t
	}
	if t := latest(func(t *domain.Talk) bool { return t.Status == domain.TalkInProgress }); t != nil {
		return t
	}

	var windowed *domain.Talk
	for _, t := range live {
		if t.StartAt.After(now) || t.EndAt.Before(now) {
			continue
		}
		if windowed == nil || t.StartAt.Before(windowed.StartAt) {
			windowed = t
		}
	}
	if windowed != nil {
		return windowed
	}

	return latest(func(t *domain.Talk) bool { return !t.StartAt.After(now) })
}

func (s *talkScheduler) ResolveNext(ctx context.Context, event *domain.Event) (*domain.Talk, error) {
	if event == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	talks, err := s.talkRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list talks: %w", err)
	}
	now := s.now()
	var next *domain.Talk
	for _, t := range talks {
		if !t.StartAt.After(now) {
			continue
		}
		if next == nil || t.StartAt.Before(next.StartAt) {
			next = t
		}
	}
	return next, nil
}

// authorize loads the talk and checks that actor is an organizer or its speaker.
func (s *talkScheduler) authorize(ctx context.Context, actor *domain.Participant, talkID string) (*domain.Talk, error) {
	talk, err := s.talkRepo.GetByID(ctx, talkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get talk: %w", err)
	}
	if actor == nil {
		return nil, domain.ErrForbidden
	}
	caps := domain.Capabilities{Organizer: actor.IsOrganizer}
	if !caps.CanManageTalk(actor, talk) {
		return nil, domain.ErrForbidden
	}
	return talk, nil
}

func (s *talkScheduler) Start(ctx context.Context, actor *domain.Participant, talkID string) (*domain.Talk, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	talk, err := s.authorize(ctx, actor, talkID)
	if err != nil {
		return nil, err
	}

	var started *domain.Talk
	err = s.talkRepo.UpdateProgram(ctx, talk.EventID, func(event *domain.Event, talks []*domain.Talk) error {
		t, err := startTalk(event, talks, talkID)
		started = t
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("start talk: %w", err)
	}
	return started, nil
}

// startTalk pins talkID as the only current talk. A previously pinned talk that was
// still in progress is closed as done.
func startTalk(event *domain.Event, talks []*domain.Talk, talkID string) (*domain.Talk, error) {
	var target *domain.Talk
	for _, t := range talks {
		if t.ID == talkID {
			target = t
		}
	}
	if target == nil {
		return nil, domain.ErrNotFound
	}
	if target.Status == domain.TalkCancelled {
		return nil, domain.ErrInvalidTransition
	}

	for _, t := range talks {
		if t == target {
			continue
		}
		if event.CurrentTalkID != nil && t.ID == *event.CurrentTalkID && t.Status == domain.TalkInProgress {
			t.Status = domain.TalkDone
		}
		t.IsCurrent = false
	}

	target.IsCurrent = true
	target.Status = domain.TalkInProgress
	id := target.ID
	event.CurrentTalkID = &id
	return target, nil
}

func (s *talkScheduler) Finish(ctx context.Context, actor *domain.Participant, talkID string) (*domain.Talk, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	talk, err := s.authorize(ctx, actor, talkID)
	if err != nil {
		return nil, err
	}

	var finished *domain.Talk
	err = s.talkRepo.UpdateProgram(ctx, talk.EventID, func(event *domain.Event, talks []*domain.Talk) error {
		t, err := finishTalk(event, talks, talkID)
		finished = t
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("finish talk: %w", err)
	}
	return finished, nil
}

// finishTalk unpins the talk and marks it done unless it was cancelled. Calling it
// again leaves the same state.
func finishTalk(event *domain.Event, talks []*domain.Talk, talkID string) (*domain.Talk, error) {
	for _, t := range talks {
		if t.ID != talkID {
			continue
		}
		t.IsCurrent = false
		if t.Status != domain.TalkCancelled {
			t.Status = domain.TalkDone
		}
		if event.CurrentTalkID != nil && *event.CurrentTalkID == talkID {
			event.CurrentTalkID = nil
		}
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (s *talkScheduler) Program(ctx context.Context, event *domain.Event) ([]*domain.TalkWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	talks, err := s.talkRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list talks: %w", err)
	}
	return s.withStats(ctx, resolveCurrent(event, talks, s.now()), talks)
}

func (s *talkScheduler) SpeakerTalks(ctx context.Context, speaker *domain.Participant, event *domain.Event) ([]*domain.TalkWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	all, err := s.talkRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list talks: %w", err)
	}
	own, err := s.talkRepo.ListBySpeaker(ctx, event.ID, speaker.ID)
	if err != nil {
		return nil, fmt.Errorf("list speaker talks: %w", err)
	}
	return s.withStats(ctx, resolveCurrent(event, all, s.now()), own)
}

func (s *talkScheduler) withStats(ctx context.Context, current *domain.Talk, talks []*domain.Talk) ([]*domain.TalkWithStats, error) {
	out := make([]*domain.TalkWithStats, 0, len(talks))
	for _, t := range talks {
		stats, err := s.questionRepo.Stats(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("question stats: %w", err)
		}
		out = append(out, &domain.TalkWithStats{
			Talk:      t,
			Questions: stats,
			IsCurrent: current != nil && current.ID == t.ID,
		})
	}
	return out, nil
}
