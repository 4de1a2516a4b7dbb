package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends review reminders to a Telegram chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates a notifier bound to one chat.
func NewTelegram(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %v", err)
	}
	log.Printf("notify: telegram reminders as @%s", api.Self.UserName)
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// SendReminder tells the user how many words are waiting.
func (n *TelegramNotifier) SendReminder(count int) error {
	text := fmt.Sprintf("📚 You have %d words due for review. A few minutes now keeps them fresh!", count)
	if count == 1 {
		text = "📚 You have 1 word due for review. A minute now keeps it fresh!"
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %v", err)
	}
	return nil
}
