package bot

import (
	"context"
	"testing"

	"pirouette/internal/models"
	"pirouette/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastSendsToAllUsers(t *testing.T) {
	b, tg, db := newTestBot(t)
	ctx := context.Background()

	for _, id := range []int64{101, 102} {
		_, err := db.GetOrCreateUser(ctx, &models.User{TelegramID: id, FirstName: "Гость"})
		require.NoError(t, err)
	}

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(adminID, "admin_broadcast")))
	assert.Contains(t, tg.lastText(t), "Кому отправить")

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(adminID, "broadcast_all")))
	require.NoError(t, b.ProcessUpdate(ctx, messageUpdate(adminID, "Завтра занятий не будет, отдыхаем!")))
	assert.Contains(t, tg.lastText(t), "(2 чел.)")

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(adminID, "broadcast_confirm")))

	require.Len(t, tg.raw, 2)
	got := map[int64]bool{}
	for _, c := range tg.raw {
		msg, ok := c.(tgbotapi.MessageConfig)
		require.True(t, ok)
		got[msg.ChatID] = true
		assert.Contains(t, msg.Text, "Завтра занятий не будет")
		assert.Contains(t, msg.Text, "Сообщение от Ани")
	}
	assert.True(t, got[101])
	assert.True(t, got[102])

	assert.Contains(t, tg.lastText(t), "Отправлено: 2")

	_, ok := b.sessions.Broadcast(adminID)
	assert.False(t, ok)
}

func TestWizardTextTakesPriorityOverBroadcast(t *testing.T) {
	b, _, _ := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(adminID, "admin_add_program")))
	require.NoError(t, b.ProcessUpdate(ctx, callbackUpdate(adminID, "add_type_group")))
	b.sessions.SetBroadcast(&session.Broadcast{ChatID: adminID, Stage: session.BroadcastStageText, Segment: "all"})

	require.NoError(t, b.ProcessUpdate(ctx, messageUpdate(adminID, "Хастл с нуля")))

	draft, ok := b.sessions.Draft(adminID)
	require.True(t, ok)
	assert.Equal(t, "Хастл с нуля", draft.Title)

	st, ok := b.sessions.Broadcast(adminID)
	require.True(t, ok)
	assert.Empty(t, st.Text)
}
