package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afterlife-xyz/afterlife/service/leaderboard"
	"github.com/afterlife-xyz/afterlife/service/query"
	"github.com/afterlife-xyz/afterlife/util"
)

type handlers struct {
	facade      *query.Facade
	leaderboard *leaderboard.Cache
}

func registerRoutes(router *gin.Engine, facade *query.Facade, cache *leaderboard.Cache) {
	h := handlers{facade: facade, leaderboard: cache}

	router.GET("/:chain/:contract/collection/:wallet", h.getCollectionForAddress)
	router.GET("/:chain/:contract/collection", h.getEntireCollection)
	router.GET("/:chain/:contract/owners/:tokenID", h.getTokenOwners)
	router.POST("/get-username", h.postGetUsername)
	router.GET("/fullcollection/:wallet", h.getFullCollection)
	router.GET("/user/level/:username", h.getUserLevel)
	router.GET("/leaderboard", h.getLeaderboard)
}

func (h handlers) getCollectionForAddress(c *gin.Context) {
	tokens, err := h.facade.CollectionForAddress(c.Request.Context(), c.Param("chain"), c.Param("contract"), c.Param("wallet"))
	if err != nil {
		util.ErrResponse(c, util.ErrorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

func (h handlers) getEntireCollection(c *gin.Context) {
	tokens, err := h.facade.EntireCollection(c.Request.Context(), c.Param("chain"), c.Param("contract"))
	if err != nil {
		util.ErrResponse(c, util.ErrorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

func (h handlers) getTokenOwners(c *gin.Context) {
	owners, err := h.facade.TokenOwners(c.Request.Context(), c.Param("chain"), c.Param("contract"), c.Param("tokenID"))
	if err != nil {
		util.ErrResponse(c, util.ErrorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, owners)
}

type getUsernameInput struct {
	Address string `json:"address" binding:"required"`
}

func (h handlers) postGetUsername(c *gin.Context) {
	var in getUsernameInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.ErrResponse(c, http.StatusBadRequest, util.ClientError{Err: err})
		return
	}

	username, err := h.facade.GetUsername(in.Address)
	if err != nil {
		util.ErrResponse(c, util.ErrorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username})
}

func (h handlers) getFullCollection(c *gin.Context) {
	collection, err := h.facade.FullCollection(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		util.ErrResponse(c, util.ErrorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h handlers) getUserLevel(c *gin.Context) {
	result, err := h.facade.UserLevel(c.Request.Context(), c.Param("username"))
	if err != nil {
		util.ErrResponse(c, util.ErrorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h handlers) getLeaderboard(c *gin.Context) {
	entries, computedAt, ok := h.leaderboard.Top(0)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"entries": []leaderboard.Entry{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "computed_at": computedAt})
}
