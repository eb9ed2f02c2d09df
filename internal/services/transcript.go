package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/types"
)

// Transient typing indicators are rendered client-side and never persisted.
var typingPlaceholders = map[string]struct{}{
	"🔎 Analyzing your goal…":                {},
	"✍️ Typing...":                           {},
	"Thinking of task suggestions for you… ✍️": {},
}

// TranscriptService is the append-only chat log. Replays return rows in
// insertion order so a reconnecting client rebuilds the exact conversation.
type TranscriptService interface {
	AppendBot(ctx context.Context, userID uuid.UUID, phase, message string) error
	AppendUser(ctx context.Context, userID uuid.UUID, phase, message string) error
	Replay(ctx context.Context, userID uuid.UUID) ([]*types.ChatMessage, error)
	ReplayPhase(ctx context.Context, userID uuid.UUID, phase string) ([]*types.ChatMessage, error)
}

type transcriptService struct {
	log      *logger.Logger
	messages repos.ChatMessageRepo
}

func NewTranscriptService(log *logger.Logger, messages repos.ChatMessageRepo) TranscriptService {
	return &transcriptService{
		log:      log.With("service", "TranscriptService"),
		messages: messages,
	}
}

func (s *transcriptService) AppendBot(ctx context.Context, userID uuid.UUID, phase, message string) error {
	return s.append(ctx, userID, types.SenderBot, phase, message)
}

func (s *transcriptService) AppendUser(ctx context.Context, userID uuid.UUID, phase, message string) error {
	return s.append(ctx, userID, types.SenderUser, phase, message)
}

func (s *transcriptService) append(ctx context.Context, userID uuid.UUID, sender, phase, message string) error {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil
	}
	if _, transient := typingPlaceholders[trimmed]; transient {
		return nil
	}
	return s.messages.Append(ctx, nil, &types.ChatMessage{
		UserID:  userID,
		Sender:  sender,
		Message: message,
		Phase:   phase,
	})
}

func (s *transcriptService) Replay(ctx context.Context, userID uuid.UUID) ([]*types.ChatMessage, error) {
	return s.messages.ListByUser(ctx, nil, userID)
}

func (s *transcriptService) ReplayPhase(ctx context.Context, userID uuid.UUID, phase string) ([]*types.ChatMessage, error) {
	return s.messages.ListByUserPhase(ctx, nil, userID, phase)
}
