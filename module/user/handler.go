package user

import (
	"context"

	mid "PPRealtime/middleware"
	"PPRealtime/tools/errs"

	"github.com/gin-gonic/gin"
)

// PresenceReader 查用户当前挂在哪个网关上；不在线返回 ("", false, nil)
type PresenceReader interface {
	Lookup(ctx context.Context, userID string) (gatewayID string, online bool, err error)
}

type presenceView struct {
	UserID    string `json:"userId"`
	IsOnline  bool   `json:"isOnline"`
	GatewayID string `json:"gatewayId,omitempty"`
}

type Handler struct {
	presence PresenceReader
}

func NewHandler(presence PresenceReader) *Handler {
	return &Handler{presence: presence}
}

// Register 路由组上必须已挂 midsec.RequireUser
func (h *Handler) Register(r gin.IRoutes) {
	mid.GET(r, "/users/:uid/presence", h.HandlerPresence, mid.RouteOpt{})
}

func (h *Handler) HandlerPresence(c *gin.Context) {
	uid := c.Param("uid")
	if uid == "" {
		mid.Fail(c, errs.ErrArgs.WrapMsg("uid is required"))
		return
	}
	gw, online, err := h.presence.Lookup(c.Request.Context(), uid)
	if err != nil {
		mid.Fail(c, err)
		return
	}
	mid.OK(c, presenceView{UserID: uid, IsOnline: online, GatewayID: gw})
}
