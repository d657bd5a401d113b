package subscription

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"animehub/pkg/models"
)

// Linker resolves a free-text anime query to a stored metadata row, returning
// its ID. Resolution failures are not fatal: the subscription is simply
// created without a metadata link.
type Linker interface {
	Resolve(ctx context.Context, query string) (string, error)
}

type Handler struct {
	Repo   *Repo
	Linker Linker
}

func NewHandler(repo *Repo, linker Linker) *Handler {
	return &Handler{Repo: repo, Linker: linker}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)          // GET /subscriptions?guild_id=...
	rg.POST("", h.create)       // POST /subscriptions
	rg.DELETE("/:id", h.remove) // DELETE /subscriptions/:id
}

type createReq struct {
	GuildID    string `json:"guild_id"`
	ChannelID  string `json:"channel_id"`
	Substring  string `json:"substring"`
	AnimeQuery string `json:"anime_query,omitempty"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.GuildID = strings.TrimSpace(req.GuildID)
	req.ChannelID = strings.TrimSpace(req.ChannelID)
	req.Substring = strings.TrimSpace(req.Substring)
	if req.GuildID == "" || req.ChannelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guild_id and channel_id required"})
		return
	}

	sub := models.Subscription{
		ID:        uuid.NewString(),
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		Substring: req.Substring,
	}

	if h.Linker != nil && req.AnimeQuery != "" {
		animeID, err := h.Linker.Resolve(c.Request.Context(), req.AnimeQuery)
		if err == nil {
			sub.AnimeID = animeID
		}
	}

	if err := h.Repo.Create(c.Request.Context(), sub); err != nil {
		if errors.Is(err, ErrInvalidSubscription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "substring must not be empty"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	sub.PartitionKey = PartitionKey(sub.Substring)
	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) list(c *gin.Context) {
	guildID := strings.TrimSpace(c.Query("guild_id"))
	if guildID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guild_id required"})
		return
	}

	subs, err := h.Repo.ListByGuild(c.Request.Context(), guildID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": subs, "total": len(subs)})
}

func (h *Handler) remove(c *gin.Context) {
	deleted, err := h.Repo.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
