// Package notifytest provides a Sender that records messages in memory.
package notifytest

import (
	tele "gopkg.in/telebot.v4"

	"leavebot/internal/notify"
)

type Message struct {
	ChatID int64
	Text   string
	Markup *tele.ReplyMarkup
}

type Document struct {
	ChatID   int64
	Filename string
	Size     int
}

// Sink collects everything sent through it. Set SendErr to simulate a
// delivery failure.
type Sink struct {
	Messages  []Message
	Documents []Document
	Deleted   []int
	SendErr   error

	nextMessageID int
}

func (s *Sink) Send(chatID int64, text string, markup *tele.ReplyMarkup) (int, error) {
	if s.SendErr != nil {
		return 0, s.SendErr
	}
	s.nextMessageID++
	s.Messages = append(s.Messages, Message{ChatID: chatID, Text: text, Markup: markup})
	return s.nextMessageID, nil
}

func (s *Sink) Delete(_ int64, messageID int) error {
	s.Deleted = append(s.Deleted, messageID)
	return nil
}

func (s *Sink) SendDocument(chatID int64, data []byte, filename string) error {
	if s.SendErr != nil {
		return s.SendErr
	}
	s.Documents = append(s.Documents, Document{ChatID: chatID, Filename: filename, Size: len(data)})
	return nil
}

// TextsFor returns the message texts delivered to one chat, in order.
func (s *Sink) TextsFor(chatID int64) []string {
	var out []string
	for _, m := range s.Messages {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

var _ notify.Sender = (*Sink)(nil)
