package call

import (
	mid "PPRealtime/middleware"
	midsec "PPRealtime/middleware/security"
	callmodel "PPRealtime/module/call/model"
	"PPRealtime/module/call/service"
	"PPRealtime/tools/errs"

	"github.com/gin-gonic/gin"
)

type createBody struct {
	ReceiverID string             `json:"receiverId"`
	CallID     string             `json:"callId"`
	HasDialled bool               `json:"hasDialled"`
	Type       callmodel.CallType `json:"type"`
}

type endBody struct {
	CallerID   string `json:"callerId"`
	ReceiverID string `json:"receiverId"`
}

type Handler struct {
	svc *service.CallService
}

func NewHandler(svc *service.CallService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRoutes) {
	mid.POST(r, "/calls", h.HandlerCreate, mid.RouteOpt{})
	mid.GET(r, "/calls", h.HandlerGet, mid.RouteOpt{})
	mid.POST(r, "/calls/:callId/accept", h.HandlerAccept, mid.RouteOpt{})
	mid.POST(r, "/calls/end", h.HandlerEnd, mid.RouteOpt{})
}

// HandlerCreate 主叫固定为当前登录用户
func (h *Handler) HandlerCreate(c *gin.Context) {
	var body createBody
	if err := c.ShouldBindJSON(&body); err != nil {
		mid.Fail(c, errs.ErrArgs.WrapMsg("bad body", "err", err))
		return
	}
	callerLeg, _, err := h.svc.CreateCall(c.Request.Context(), service.CreateCallRequest{
		CallerID:   midsec.UserFrom(c),
		ReceiverID: body.ReceiverID,
		CallID:     body.CallID,
		HasDialled: body.HasDialled,
		Type:       body.Type,
	})
	if err != nil {
		mid.Fail(c, err)
		return
	}
	mid.OK(c, callerLeg)
}

func (h *Handler) HandlerGet(c *gin.Context) {
	call, err := h.svc.GetCall(c.Request.Context(), midsec.UserFrom(c))
	if err != nil {
		mid.Fail(c, err)
		return
	}
	mid.OK(c, call)
}

// HandlerAccept 只有被叫能接听
func (h *Handler) HandlerAccept(c *gin.Context) {
	if err := h.svc.AcceptCall(c.Request.Context(), c.Param("callId"), midsec.UserFrom(c)); err != nil {
		mid.Fail(c, err)
		return
	}
	mid.OK(c, nil)
}

// HandlerEnd 只有通话的一方能挂断
func (h *Handler) HandlerEnd(c *gin.Context) {
	var body endBody
	if err := c.ShouldBindJSON(&body); err != nil {
		mid.Fail(c, errs.ErrArgs.WrapMsg("bad body", "err", err))
		return
	}
	uid := midsec.UserFrom(c)
	if uid != body.CallerID && uid != body.ReceiverID {
		mid.Fail(c, errs.ErrForbidden.WrapMsg("not a participant", "uid", uid))
		return
	}
	if err := h.svc.EndCall(c.Request.Context(), body.CallerID, body.ReceiverID); err != nil {
		mid.Fail(c, err)
		return
	}
	mid.OK(c, nil)
}
