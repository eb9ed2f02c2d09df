package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/services"
	"github.com/goalie-study/goalie-backend/internal/testutil"
	"github.com/goalie-study/goalie-backend/internal/types"
)

func newTranscriptService(t *testing.T) (services.TranscriptService, *types.User) {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := logger.NewNop()
	svc := services.NewTranscriptService(log, repos.NewChatMessageRepo(db, log))
	user := testutil.NewTestUser(t, db)
	return svc, user
}

func TestTranscript_ReplayPreservesInsertionOrder(t *testing.T) {
	svc, user := newTranscriptService(t)
	ctx := context.Background()

	require.NoError(t, svc.AppendBot(ctx, user.ID, "intro", "Hello!"))
	require.NoError(t, svc.AppendUser(ctx, user.ID, "intro", "Hi there"))
	require.NoError(t, svc.AppendBot(ctx, user.ID, "smart_training", "Let's begin."))

	msgs, err := svc.Replay(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hello!", msgs[0].Message)
	assert.Equal(t, types.SenderUser, msgs[1].Sender)
	assert.Equal(t, "Let's begin.", msgs[2].Message)
}

func TestTranscript_SuppressesTypingPlaceholders(t *testing.T) {
	svc, user := newTranscriptService(t)
	ctx := context.Background()

	for _, placeholder := range []string{
		"🔎 Analyzing your goal…",
		"✍️ Typing...",
		"Thinking of task suggestions for you… ✍️",
	} {
		require.NoError(t, svc.AppendBot(ctx, user.ID, "goal_setting", placeholder))
	}
	require.NoError(t, svc.AppendBot(ctx, user.ID, "goal_setting", "A real message"))

	msgs, err := svc.Replay(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "transient typing indicators never reach the log")
	assert.Equal(t, "A real message", msgs[0].Message)
}

func TestTranscript_SkipsEmptyMessages(t *testing.T) {
	svc, user := newTranscriptService(t)
	ctx := context.Background()

	require.NoError(t, svc.AppendUser(ctx, user.ID, "menu", "   "))
	require.NoError(t, svc.AppendUser(ctx, user.ID, "menu", ""))

	msgs, err := svc.Replay(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTranscript_ReplayPhaseFilters(t *testing.T) {
	svc, user := newTranscriptService(t)
	ctx := context.Background()

	require.NoError(t, svc.AppendBot(ctx, user.ID, "intro", "Hello!"))
	require.NoError(t, svc.AppendBot(ctx, user.ID, "reflection", "How did it go?"))

	msgs, err := svc.ReplayPhase(ctx, user.ID, "reflection")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "How did it go?", msgs[0].Message)
}
