package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview 获取后台仪表盘总览
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	input, err := parseDashboardQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	data, err := h.DashboardService.GetOverview(c.Request.Context(), actor, input)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, data)
}

// GetDashboardRankings 获取后台仪表盘排行榜
func (h *Handler) GetDashboardRankings(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	input, err := parseDashboardQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	data, err := h.DashboardService.GetRankings(c.Request.Context(), actor, input)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, data)
}

// GetDashboardTrends 获取后台仪表盘趋势
func (h *Handler) GetDashboardTrends(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	input, err := parseDashboardQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	data, err := h.DashboardService.GetTrends(c.Request.Context(), actor, input)
	if err != nil {
		respondServiceError(c, err, "error.fetch_failed")
		return
	}
	response.Success(c, data)
}

func parseDashboardQuery(c *gin.Context) (service.DashboardQueryInput, error) {
	input := service.DashboardQueryInput{
		Range:    strings.TrimSpace(c.DefaultQuery("range", "7d")),
		Timezone: strings.TrimSpace(c.Query("tz")),
	}
	for name, dest := range map[string]**time.Time{"from": &input.From, "to": &input.To} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return service.DashboardQueryInput{}, err
		}
		*dest = &parsed
	}
	if raw := strings.TrimSpace(c.Query("force_refresh")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return service.DashboardQueryInput{}, err
		}
		input.ForceRefresh = parsed
	}
	return input, nil
}
