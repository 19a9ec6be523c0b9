package bot

import (
	"errors"

	"pirouette/internal/database"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, database.ErrNotFound) {
		return "❌ Программа не найдена"
	}

	if errors.Is(err, database.ErrDuplicateBooking) {
		return "⚠️ У пользователя уже есть подтверждённая запись на эту программу."
	}

	// Default error message
	return "❌ Произошла ошибка при обработке вашего запроса. Пожалуйста, попробуйте позже или напишите Ане."
}
