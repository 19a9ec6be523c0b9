package bot

// Stop прекращает получение обновлений Telegram (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}
