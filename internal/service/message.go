package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/notify"
)

const (
	maxMessageRunes = 4000
	excerptRunes    = 140
)

// ContactSource resolves users to notification contacts.  Unknown ids
// are absent from the result.
type ContactSource interface {
	Contacts(ctx context.Context, ids ...uint64) (map[uint64]notify.Contact, error)
}

// MessageStore persists direct messages.
type MessageStore interface {
	Create(ctx context.Context, m *model.Message) error
	Inbox(ctx context.Context, userID uint64, unreadOnly bool, limit, offset int) ([]model.Message, error)
	MarkRead(ctx context.Context, id, receiverID uint64) error
}

// SendMessage is the input of MessageService.Send.
type SendMessage struct {
	SenderID   uint64
	ReceiverID uint64
	BookingID  *uint64
	Body       string
}

type MessageService struct {
	messages   MessageStore
	contacts   ContactSource
	bookings   BookingReader
	dispatcher notify.Dispatcher
	log        zerolog.Logger
	inflight   sync.WaitGroup
}

// NewMessageService wires messaging.  A nil dispatcher disables
// notifications.
func NewMessageService(messages MessageStore, contacts ContactSource, bookings BookingReader, d notify.Dispatcher, log zerolog.Logger) *MessageService {
	return &MessageService{messages: messages, contacts: contacts, bookings: bookings, dispatcher: d, log: log}
}

// Send stores a message and notifies the receiver.  A message attached
// to a booking must travel between that booking's guest and host.
func (s *MessageService) Send(ctx context.Context, in SendMessage) (model.Message, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return model.Message{}, apperr.Validation("message body is required")
	}
	if utf8.RuneCountInString(body) > maxMessageRunes {
		return model.Message{}, apperr.Validation("message body exceeds %d characters", maxMessageRunes)
	}
	if in.ReceiverID == 0 || in.ReceiverID == in.SenderID {
		return model.Message{}, apperr.Validation("invalid receiver")
	}
	contacts, err := s.contacts.Contacts(ctx, in.SenderID, in.ReceiverID)
	if err != nil {
		return model.Message{}, fmt.Errorf("load contacts: %w", err)
	}
	if _, ok := contacts[in.ReceiverID]; !ok {
		return model.Message{}, apperr.NotFound("user %d not found", in.ReceiverID)
	}
	if in.BookingID != nil {
		b, err := s.bookings.GetBooking(ctx, *in.BookingID)
		if err != nil {
			return model.Message{}, notFound("booking", *in.BookingID, err)
		}
		if !participants(b, in.SenderID, in.ReceiverID) {
			return model.Message{}, apperr.Forbidden("booking %d is not between these users", b.ID)
		}
	}

	m := model.Message{SenderID: in.SenderID, ReceiverID: in.ReceiverID, BookingID: in.BookingID, Body: body}
	if err := s.messages.Create(ctx, &m); err != nil {
		return model.Message{}, notFound("user", in.ReceiverID, err)
	}

	sender, receiver := contacts[in.SenderID], contacts[in.ReceiverID]
	s.notify(notify.Event{
		ID:         uuid.NewString(),
		Kind:       notify.MessageReceived,
		Sender:     &sender,
		Receiver:   &receiver,
		Excerpt:    excerpt(body),
		OccurredAt: time.Now().UTC(),
	})
	return m, nil
}

// Inbox lists a user's conversations, newest first.
func (s *MessageService) Inbox(ctx context.Context, userID uint64, unreadOnly bool, limit, offset int) ([]model.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.messages.Inbox(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead flags a received message as read.
func (s *MessageService) MarkRead(ctx context.Context, id, receiverID uint64) error {
	if err := s.messages.MarkRead(ctx, id, receiverID); err != nil {
		return notFound("message", id, err)
	}
	return nil
}

// Wait blocks until pending notifications are handed off.
func (s *MessageService) Wait() { s.inflight.Wait() }

func (s *MessageService) notify(ev notify.Event) {
	if s.dispatcher == nil {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
			s.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("notification dispatch failed")
		}
	}()
}

func participants(b model.Booking, a, c uint64) bool {
	return (b.GuestID == a && b.HostID == c) || (b.HostID == a && b.GuestID == c)
}

func excerpt(body string) string {
	if utf8.RuneCountInString(body) <= excerptRunes {
		return body
	}
	r := []rune(body)
	return string(r[:excerptRunes]) + "…"
}
