// Package notify is the outbound messaging port. Services depend on the
// Sender interface; the Telegram implementation binds to the bot once the
// transport is up.
package notify

import (
	"bytes"
	"errors"
	"strconv"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// ErrNotBound is returned when a send is attempted before the transport started.
var ErrNotBound = errors.New("notify: transport not bound")

// Sender delivers messages and documents to arbitrary chats. Send returns a
// message handle usable with Delete.
type Sender interface {
	Send(chatID int64, text string, markup *tele.ReplyMarkup) (int, error)
	Delete(chatID int64, messageID int) error
	SendDocument(chatID int64, data []byte, filename string) error
}

// Telegram implements Sender on top of a running telebot instance.
type Telegram struct {
	bot atomic.Pointer[tele.Bot]
}

// NewTelegram returns an unbound sender; Bind must be called from the
// transport's start hook before any delivery.
func NewTelegram() *Telegram {
	return &Telegram{}
}

// Bind attaches the live bot. Safe to call once from OnStart.
func (t *Telegram) Bind(b *tele.Bot) {
	t.bot.Store(b)
}

func (t *Telegram) Send(chatID int64, text string, markup *tele.ReplyMarkup) (int, error) {
	b := t.bot.Load()
	if b == nil {
		return 0, ErrNotBound
	}
	var (
		msg *tele.Message
		err error
	)
	if markup != nil {
		msg, err = b.Send(tele.ChatID(chatID), text, markup)
	} else {
		msg, err = b.Send(tele.ChatID(chatID), text)
	}
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (t *Telegram) Delete(chatID int64, messageID int) error {
	b := t.bot.Load()
	if b == nil {
		return ErrNotBound
	}
	return b.Delete(tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	})
}

func (t *Telegram) SendDocument(chatID int64, data []byte, filename string) error {
	b := t.bot.Load()
	if b == nil {
		return ErrNotBound
	}
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: filename,
	}
	_, err := b.Send(tele.ChatID(chatID), doc)
	return err
}
