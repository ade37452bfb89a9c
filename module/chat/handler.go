package chat

import (
	mid "PPRealtime/middleware"
	midsec "PPRealtime/middleware/security"
	chatmodel "PPRealtime/module/chat/model"
	"PPRealtime/module/chat/service"
	"PPRealtime/tools/errs"

	"github.com/gin-gonic/gin"
)

type sendBody struct {
	ReceiverID         string                `json:"receiverId"`
	GroupID            string                `json:"groupId"`
	Text               string                `json:"text"`
	Type               chatmodel.MessageType `json:"type"`
	RepliedMessage     string                `json:"repliedMessage"`
	RepliedTo          string                `json:"repliedTo"`
	RepliedMessageType chatmodel.MessageType `json:"repliedMessageType"`
}

type Handler struct {
	svc *service.MessageService
}

func NewHandler(svc *service.MessageService) *Handler {
	return &Handler{svc: svc}
}

// Register 路由组上必须已挂 midsec.RequireUser
func (h *Handler) Register(r gin.IRoutes) {
	mid.POST(r, "/messages", h.HandlerSend, mid.RouteOpt{})
	mid.POST(r, "/messages/:messageId/seen", h.HandlerSeen, mid.RouteOpt{})
}

func (h *Handler) HandlerSend(c *gin.Context) {
	var body sendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		mid.Fail(c, errs.ErrArgs.WrapMsg("bad body", "err", err))
		return
	}
	m, err := h.svc.SendMessage(c.Request.Context(), service.SendRequest{
		SenderID:           midsec.UserFrom(c),
		ReceiverID:         body.ReceiverID,
		GroupID:            body.GroupID,
		Text:               body.Text,
		Type:               body.Type,
		RepliedMessage:     body.RepliedMessage,
		RepliedTo:          body.RepliedTo,
		RepliedMessageType: body.RepliedMessageType,
	})
	if err != nil {
		mid.Fail(c, err)
		return
	}
	mid.OK(c, m)
}

func (h *Handler) HandlerSeen(c *gin.Context) {
	if err := h.svc.MarkSeen(c.Request.Context(), c.Param("messageId"), midsec.UserFrom(c)); err != nil {
		mid.Fail(c, err)
		return
	}
	mid.OK(c, nil)
}
