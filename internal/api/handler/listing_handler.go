package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/service"
	"github.com/d60-Lab/break-social/pkg/response"
)

// ListListings 商品列表（仅 active）
// @Summary 商品列表
// @Tags 市场
// @Param seller_id query string false "卖家ID"
// @Param liked_by query string false "收藏者ID"
// @Param q query string false "关键字"
// @Success 200 {object} response.Response{data=[]model.FeedItem}
// @Router /api/v1/listings [get]
func (h *Handler) ListListings(c *gin.Context) {
	items, err := h.agg.FetchListings(c.Request.Context(), service.ListingQuery{
		SellerID: c.Query("seller_id"),
		LikedBy:  c.Query("liked_by"),
		Query:    c.Query("q"),
		ViewerID: viewer(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, items)
}

// GetListing 商品详情
// @Summary 商品详情
// @Tags 市场
// @Param id path string true "商品ID"
// @Success 200 {object} response.Response{data=model.Listing}
// @Failure 404 {object} response.Response
// @Router /api/v1/listings/{id} [get]
func (h *Handler) GetListing(c *gin.Context) {
	l, err := h.listingSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, l)
}

// CreateListing 上架
// @Summary 上架商品
// @Tags 市场
// @Accept json
// @Security BearerAuth
// @Param request body service.ListingInput true "商品信息"
// @Success 201 {object} response.Response{data=model.Listing}
// @Failure 400 {object} response.Response
// @Router /api/v1/listings [post]
func (h *Handler) CreateListing(c *gin.Context) {
	var in service.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	l, err := h.listingSvc.Create(c.Request.Context(), viewer(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, l)
}

// UpdateListing 编辑商品（仅卖家）
// @Summary 编辑商品
// @Tags 市场
// @Accept json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Param request body service.ListingInput true "商品信息"
// @Success 200 {object} response.Response{data=model.Listing}
// @Failure 403 {object} response.Response
// @Router /api/v1/listings/{id} [put]
func (h *Handler) UpdateListing(c *gin.Context) {
	var in service.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	l, err := h.listingSvc.Update(c.Request.Context(), viewer(c), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, l)
}

type statusRequest struct {
	Status model.ListingStatus `json:"status" binding:"required"`
}

// SetListingStatus 标记售出/删除
// @Summary 修改商品状态
// @Tags 市场
// @Accept json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Param request body statusRequest true "active / sold / deleted"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/listings/{id}/status [patch]
func (h *Handler) SetListingStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.listingSvc.SetStatus(c.Request.Context(), viewer(c), c.Param("id"), req.Status); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// LikeListing 收藏 / 取消收藏
// @Summary 收藏商品（POST）或取消（DELETE）
// @Tags 互动
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Router /api/v1/listings/{id}/like [post]
// @Router /api/v1/listings/{id}/like [delete]
func (h *Handler) LikeListing(c *gin.Context) {
	h.toggle(c, service.KindListingLike, c.Param("id"))
}

// MakeOffer 出价
// @Summary 出价
// @Tags 市场
// @Accept json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Param request body service.OfferInput true "出价"
// @Success 201 {object} response.Response{data=model.Offer}
// @Failure 400 {object} response.Response
// @Router /api/v1/listings/{id}/offers [post]
func (h *Handler) MakeOffer(c *gin.Context) {
	var in service.OfferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in.ListingID, in.BuyerID = c.Param("id"), viewer(c)
	o, err := h.offerService.MakeOffer(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, o)
}

// ListOffers 卖家查看出价
// @Summary 出价列表（仅卖家）
// @Tags 市场
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Success 200 {object} response.Response{data=[]model.Offer}
// @Failure 403 {object} response.Response
// @Router /api/v1/listings/{id}/offers [get]
func (h *Handler) ListOffers(c *gin.Context) {
	list, err := h.offerService.ListByListing(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}
