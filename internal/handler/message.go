package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/service"
)

// Messages is implemented by service.MessageService.
type Messages interface {
	Send(ctx context.Context, in service.SendMessage) (model.Message, error)
	Inbox(ctx context.Context, userID uint64, unreadOnly bool, limit, offset int) ([]model.Message, error)
	MarkRead(ctx context.Context, id, receiverID uint64) error
}

type MessageHandler struct {
	Messages Messages
}

func NewMessageHandler(m Messages) *MessageHandler { return &MessageHandler{Messages: m} }

type messageReq struct {
	ReceiverID uint64  `json:"receiver_id" validate:"required"`
	BookingID  *uint64 `json:"booking_id"`
	Body       string  `json:"body" validate:"required"`
}

func (h *MessageHandler) Send(c echo.Context) error {
	var req messageReq
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Messages.Send(ctx, service.SendMessage{
		SenderID:   requestor(c).UserID,
		ReceiverID: req.ReceiverID,
		BookingID:  req.BookingID,
		Body:       req.Body,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// Inbox lists the caller's messages; ?unread=true keeps unread received
// ones only.
func (h *MessageHandler) Inbox(c echo.Context) error {
	unread, _ := strconv.ParseBool(c.QueryParam("unread"))
	limit, offset := paging(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Messages.Inbox(ctx, requestor(c).UserID, unread, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Messages.MarkRead(ctx, id, requestor(c).UserID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
