package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/MrEthical07/storefront"
	resp "github.com/MrEthical07/storefront/internal/httpapi/response"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type statusIn struct {
	Status string `json:"status"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var in storefront.OrderInput
	if !bind(c, &in) {
		return
	}
	o, err := h.engine.CreateOrder(c.Request.Context(), token(c), in)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Created(c, o)
}

// ListOrders returns every order to managers and the caller's own orders
// to everyone else.
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.engine.ListOrders(c.Request.Context(), token(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, gin.H{"orders": nonNil(orders), "count": len(orders)})
}

func (h *Handler) GetOrder(c *gin.Context) {
	o, err := h.engine.GetOrder(c.Request.Context(), token(c), c.Param("number"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, o)
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	o, err := h.engine.ConfirmPayment(c.Request.Context(), token(c), c.Param("number"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, o)
}

func (h *Handler) ListDeliveries(c *gin.Context) {
	orders, err := h.engine.ListDeliveries(c.Request.Context(), token(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, gin.H{"orders": nonNil(orders), "count": len(orders)})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var in statusIn
	if !bind(c, &in) {
		return
	}
	o, err := h.engine.UpdateOrderStatus(c.Request.Context(), token(c), c.Param("number"), in.Status)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, o)
}

func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	var in statusIn
	if !bind(c, &in) {
		return
	}
	o, err := h.engine.UpdatePaymentStatus(c.Request.Context(), token(c), c.Param("number"), in.Status)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, o)
}

// ExportOrders renders the workbook into memory first so a failure can
// still be answered with the JSON envelope.
func (h *Handler) ExportOrders(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.engine.ExportOrders(c.Request.Context(), token(c), &buf); err != nil {
		resp.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="orders.xlsx"`)
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func nonNil(orders []*storefront.Order) []*storefront.Order {
	if orders == nil {
		return []*storefront.Order{}
	}
	return orders
}
