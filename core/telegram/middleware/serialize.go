package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// SerializePerChat returns a middleware that handles updates from the same
// chat strictly one at a time. Conversation sessions are read-modify-write
// on a single chat's entry, so interleaved handlers for one chat would race;
// different chats still proceed concurrently.
func SerializePerChat() tele.MiddlewareFunc {
	var (
		mu    sync.Mutex
		locks = make(map[int64]*chatLock)
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return next(c)
			}

			mu.Lock()
			l, ok := locks[chat.ID]
			if !ok {
				l = &chatLock{}
				locks[chat.ID] = l
			}
			l.refs++
			mu.Unlock()

			l.mu.Lock()
			err := next(c)
			l.mu.Unlock()

			mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(locks, chat.ID)
			}
			mu.Unlock()

			return err
		}
	}
}
