package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func makeStartKeyboard() tgbotapi.InlineKeyboardMarkup {
	version := tgbotapi.NewInlineKeyboardButtonData("ℹ️ Version", "app_version")
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(version))
}
