package service

import (
	"context"
	"decklobby/internal/model"
	"decklobby/internal/repository"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultCapacity = 4

// LobbyService is the session state machine: create, join, leave, update and
// start. Every read-modify-write runs inside SessionRepo.Update, so it is
// atomic per session while different sessions proceed independently.
type LobbyService struct {
	sessions        repository.SessionRepo
	decks           repository.DeckRepo
	codes           *CodeAllocator
	authSvc         *AuthService
	broadcaster     Broadcaster
	logger          *zap.Logger
	now             func() time.Time
	defaultCapacity int
}

// NewLobbyService creates a new lobby service. decks may be nil, in which case
// selected resources are not resolved.
func NewLobbyService(
	sessions repository.SessionRepo,
	decks repository.DeckRepo,
	authSvc *AuthService,
	logger *zap.Logger,
) *LobbyService {
	return &LobbyService{
		sessions:        sessions,
		decks:           decks,
		codes:           NewCodeAllocator(sessions),
		authSvc:         authSvc,
		logger:          logger,
		now:             time.Now,
		defaultCapacity: DefaultCapacity,
	}
}

// SetBroadcaster sets the broadcaster for realtime snapshots
func (s *LobbyService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetDefaultCapacity changes the capacity used when a create request omits it
func (s *LobbyService) SetDefaultCapacity(n int) {
	s.defaultCapacity = n
}

func (s *LobbyService) publish(session *model.Session) {
	if s.broadcaster != nil && session != nil {
		s.broadcaster.PublishSnapshot(session)
	}
}

// NormalizeCode trims and upper-cases a user-typed code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateSession opens a new session with the caller as host
func (s *LobbyService) CreateSession(ctx context.Context, hostName string, capacity *int) (*model.SessionJoinResponse, error) {
	name := strings.TrimSpace(hostName)
	if name == "" {
		return nil, fmt.Errorf("%w: host name is required", ErrInvalidArgument)
	}
	seats := s.defaultCapacity
	if capacity != nil {
		seats = *capacity
	}
	if seats < model.MinCapacity || seats > model.MaxCapacity {
		return nil, fmt.Errorf("%w: capacity must be between %d and %d", ErrInvalidArgument, model.MinCapacity, model.MaxCapacity)
	}

	code, err := s.codes.Allocate()
	if err != nil {
		return nil, err
	}

	now := s.now()
	host := &model.Participant{
		ID:          uuid.NewString(),
		DisplayName: name,
		IsHost:      true,
		JoinedAt:    now,
	}
	session := &model.Session{
		ID:                uuid.NewString(),
		Code:              code,
		HostParticipantID: host.ID,
		Participants:      []*model.Participant{host},
		Capacity:          seats,
		Status:            model.SessionOpen,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	token, err := s.authSvc.GenerateParticipantToken(session.ID, host.ID)
	if err != nil {
		s.sessions.ReleaseCode(code)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.sessions.ReleaseCode(code)
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("code", code),
		zap.Int("capacity", seats))
	s.publish(session)

	return &model.SessionJoinResponse{
		Session:       session,
		ParticipantID: host.ID,
		Token:         token,
	}, nil
}

// JoinSession adds a non-host participant to the open session holding code
func (s *LobbyService) JoinSession(ctx context.Context, code, name string) (*model.SessionJoinResponse, error) {
	displayName := strings.TrimSpace(name)
	if displayName == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	code = NormalizeCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidArgument)
	}

	found, err := s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: no session with code %s", ErrNotFound, code)
	}

	participant := &model.Participant{
		ID:          uuid.NewString(),
		DisplayName: displayName,
	}
	token, err := s.authSvc.GenerateParticipantToken(found.ID, participant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	session, err := s.sessions.Update(ctx, found.ID, func(sess *model.Session) error {
		if sess.Status != model.SessionOpen {
			return fmt.Errorf("%w: session is %s", ErrNotAcceptingPlayers, sess.Status)
		}
		if sess.IsFull() {
			return fmt.Errorf("%w: all %d seats are taken", ErrFull, sess.Capacity)
		}
		now := s.now()
		participant.JoinedAt = now
		sess.Participants = append(sess.Participants, participant)
		sess.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: no session with code %s", ErrNotFound, code)
	}

	s.logger.Info("participant joined",
		zap.String("session_id", session.ID),
		zap.String("participant_id", participant.ID),
		zap.Int("seats_taken", len(session.Participants)))
	s.publish(session)

	return &model.SessionJoinResponse{
		Session:       session,
		ParticipantID: participant.ID,
		Token:         token,
	}, nil
}

// LeaveSession removes a participant. When the last one leaves, the session is
// closed and evicted and its code becomes free. The host is not replaced.
func (s *LobbyService) LeaveSession(ctx context.Context, sessionID, participantID string) (*model.Session, error) {
	session, err := s.sessions.Update(ctx, sessionID, func(sess *model.Session) error {
		_, idx := sess.Participant(participantID)
		if idx < 0 {
			return fmt.Errorf("%w: participant %s is not in this session", ErrNotFound, participantID)
		}
		sess.Participants = append(sess.Participants[:idx], sess.Participants[idx+1:]...)
		if len(sess.Participants) == 0 {
			sess.Status = model.SessionClosed
		}
		sess.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}

	s.logger.Info("participant left",
		zap.String("session_id", sessionID),
		zap.String("participant_id", participantID),
		zap.String("status", string(session.Status)))
	s.publish(session)
	return session, nil
}

// UpdateParticipant applies a partial update to one participant. A changed
// resource clears readiness unless the same update re-readies, and readiness
// requires a selected resource.
func (s *LobbyService) UpdateParticipant(ctx context.Context, sessionID, participantID string, update model.ParticipantUpdate) (*model.Session, error) {
	var resourceName string
	if update.SelectedResourceID.Set && update.SelectedResourceID.Value != nil {
		id := strings.TrimSpace(*update.SelectedResourceID.Value)
		if id == "" {
			return nil, fmt.Errorf("%w: selectedResourceId must not be empty", ErrInvalidArgument)
		}
		update.SelectedResourceID.Value = &id
		if s.decks != nil {
			deck, err := s.decks.GetByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve deck: %w", err)
			}
			if deck == nil {
				return nil, fmt.Errorf("%w: unknown deck %s", ErrInvalidArgument, id)
			}
			resourceName = deck.Name
		}
	}

	session, err := s.sessions.Update(ctx, sessionID, func(sess *model.Session) error {
		p, _ := sess.Participant(participantID)
		if p == nil {
			return fmt.Errorf("%w: participant %s is not in this session", ErrNotFound, participantID)
		}

		if update.SelectedResourceID.Set {
			next := update.SelectedResourceID.Value
			if !sameResource(p.SelectedResourceID, next) {
				p.IsReady = false
			}
			p.SelectedResourceID = next
			p.SelectedResourceName = ""
			if next != nil {
				p.SelectedResourceName = resourceName
			}
		}

		if update.IsReady != nil {
			if *update.IsReady && p.SelectedResourceID == nil {
				return fmt.Errorf("%w: select a deck before readying up", ErrInvalidState)
			}
			p.IsReady = *update.IsReady
		}

		sess.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}

	s.publish(session)
	return session, nil
}

func sameResource(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// AttemptStart moves an open session to active. It is the only gate on game
// start and re-checks readiness under the session lock.
func (s *LobbyService) AttemptStart(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.Update(ctx, sessionID, func(sess *model.Session) error {
		if sess.Status != model.SessionOpen {
			return fmt.Errorf("%w: session is already %s", ErrInvalidState, sess.Status)
		}
		if len(sess.Participants) < model.MinCapacity {
			return fmt.Errorf("%w: at least %d players are required", ErrInvalidState, model.MinCapacity)
		}
		if !sess.AllReady() {
			return fmt.Errorf("%w: not all players are ready", ErrInvalidState)
		}
		sess.Status = model.SessionActive
		sess.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}

	s.logger.Info("session started",
		zap.String("session_id", session.ID),
		zap.Int("players", len(session.Participants)))
	s.publish(session)
	return session, nil
}

// GetSession retrieves a session by id
func (s *LobbyService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	return session, nil
}

// GetSessionByCode retrieves a session by its join code (case-insensitive)
func (s *LobbyService) GetSessionByCode(ctx context.Context, code string) (*model.Session, error) {
	code = NormalizeCode(code)
	session, err := s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: no session with code %s", ErrNotFound, code)
	}
	return session, nil
}

// ListOpenSessions returns every session still accepting players
func (s *LobbyService) ListOpenSessions(ctx context.Context) ([]*model.Session, error) {
	return s.sessions.ListOpen(ctx)
}

var errNoLongerIdle = errors.New("session no longer idle")

// CloseIdleSessions closes open sessions untouched since cutoff and returns
// how many were closed.
func (s *LobbyService) CloseIdleSessions(ctx context.Context, cutoff time.Time) (int, error) {
	open, err := s.sessions.ListOpen(ctx)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, candidate := range open {
		if !candidate.UpdatedAt.Before(cutoff) {
			continue
		}
		session, err := s.sessions.Update(ctx, candidate.ID, func(sess *model.Session) error {
			if sess.Status != model.SessionOpen || !sess.UpdatedAt.Before(cutoff) {
				return errNoLongerIdle
			}
			sess.Status = model.SessionClosed
			sess.UpdatedAt = s.now()
			return nil
		})
		if errors.Is(err, errNoLongerIdle) || (err == nil && session == nil) {
			continue
		}
		if err != nil {
			return closed, err
		}

		closed++
		s.logger.Info("idle session closed",
			zap.String("session_id", session.ID),
			zap.String("code", session.Code))
		s.publish(session)
	}
	return closed, nil
}
