package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreBookingLifecycle(t *testing.T) {
	s := NewStore()

	_, ok := s.Booking(100)
	assert.False(t, ok)

	s.SetBooking(&Booking{ChatID: 100, ProgramID: 5, Step: StepContact})
	b, ok := s.Booking(100)
	require.True(t, ok)
	assert.Equal(t, int64(5), b.ProgramID)
	assert.Equal(t, StepContact, b.Step)

	s.DeleteBooking(100)
	_, ok = s.Booking(100)
	assert.False(t, ok)
}

func TestToggleSessionLimit(t *testing.T) {
	b := &Booking{ChatID: 1}

	for _, id := range []int64{10, 11, 12, 13} {
		assert.True(t, b.ToggleSession(id, 4))
	}
	assert.Len(t, b.SelectedSessions, 4)

	// Пятое занятие не добавляется.
	assert.False(t, b.ToggleSession(14, 4))
	assert.Len(t, b.SelectedSessions, 4)

	// Повторное нажатие снимает выбор.
	assert.True(t, b.ToggleSession(11, 4))
	assert.False(t, b.HasSession(11))
	assert.Len(t, b.SelectedSessions, 3)

	assert.True(t, b.ToggleSession(14, 4))
	assert.True(t, b.HasSession(14))
}

func TestClearDraftDropsAuxState(t *testing.T) {
	s := NewStore()
	s.SetDraft(&ProgramDraft{
		ChatID:          7,
		Step:            DraftStepIntensiveTime,
		Type:            "intensive",
		IntensiveDays:   3,
		IntensiveTimes:  []string{"19:00"},
		IntensiveCursor: 1,
		TempDay:         "Пн",
	})

	s.ClearDraft(7)
	_, ok := s.Draft(7)
	assert.False(t, ok)
}

func TestBroadcastState(t *testing.T) {
	s := NewStore()
	s.SetBroadcast(&Broadcast{ChatID: 3, Stage: BroadcastStageSegment})

	b, ok := s.Broadcast(3)
	require.True(t, ok)
	b.Stage = BroadcastStageText
	b.Segment = "all"

	got, _ := s.Broadcast(3)
	assert.Equal(t, BroadcastStageText, got.Stage)

	s.ClearBroadcast(3)
	_, ok = s.Broadcast(3)
	assert.False(t, ok)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			s.SetBooking(&Booking{ChatID: chatID, Step: StepNotes})
			s.Booking(chatID)
			s.DeleteBooking(chatID)
		}(int64(i))
	}
	wg.Wait()
}
