package handlers

import (
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/core/services"
	"affiliatehub/internal/pkg/identifier"
	"affiliatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RankingHandler serves the public leaderboard
type RankingHandler struct {
	rankingService *services.RankingService
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(rankingService *services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

// RankingItem is one leaderboard row
type RankingItem struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Sales   int     `json:"sales"`
	Revenue float64 `json:"revenue"`
	Avatar  string  `json:"avatar"`
	CPF     string  `json:"cpf,omitempty"`
}

// Ranking handles the leaderboard
// @Summary Affiliate ranking
// @Description Top affiliates by confirmed sales
// @Tags Affiliates
// @Produce json
// @Success 200 {array} RankingItem
// @Failure 500 {object} response.Response
// @Router /affiliates/ranking [get]
func (h *RankingHandler) Ranking(c *fiber.Ctx) error {
	entries, err := h.rankingService.Ranking(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to load ranking")
	}

	items := make([]RankingItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toRankingItem(entry))
	}
	return c.JSON(items)
}

func toRankingItem(entry domain.RankingEntry) RankingItem {
	item := RankingItem{
		ID:      entry.Code,
		Name:    entry.DisplayName,
		Sales:   entry.SaleCount,
		Revenue: entry.Revenue.InexactFloat64(),
	}
	if entry.IDNumber != "" {
		item.CPF = identifier.MaskIDNumber(entry.IDNumber)
	}
	return item
}
