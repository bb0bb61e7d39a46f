package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"referral-staking-backend/internal/common/middleware"
	"referral-staking-backend/internal/common/validation"
	"referral-staking-backend/internal/domain/ledger"
	"referral-staking-backend/internal/features/admin/models"
	"referral-staking-backend/internal/features/admin/service"
)

type AdminHandler struct {
	service service.AdminService
	secret  string
	logger  *zap.Logger
}

func NewAdminHandler(service service.AdminService, jwtSecret string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		secret:  jwtSecret,
		logger:  logger,
	}
}

// RegisterRoutes mounts the operator API. Nothing is mounted without a secret.
func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	if h.secret == "" {
		h.logger.Warn("ADMIN_JWT_SECRET is empty, admin routes disabled")
		return
	}
	wrap := middleware.HandleErrorWrapper(h.logger)

	admin := router.Group("/admin", middleware.RequireAdmin(h.secret, h.logger))
	{
		admin.GET("/users", wrap(h.listUsers))
		admin.GET("/referrals", wrap(h.listReferrals))
		admin.GET("/stakes", wrap(h.listStakes))
		admin.GET("/rewards", wrap(h.listRewards))
		admin.POST("/stakes/mark-unlocked", wrap(h.markUnlocked))
		admin.POST("/stakes/force-unlock", wrap(h.forceUnlock))
		admin.POST("/rewards/mark-paid", wrap(h.markPaid))
		admin.GET("/dashboard", wrap(h.dashboard))
		admin.GET("/reports/monthly", wrap(h.monthlyReport))
	}
}

// @securityDefinitions.apikey AdminBearer
// @in header
// @name Authorization
// @description Bearer JWT with role=admin

// @Summary Пользователи
// @Tags admin
// @Produce json
// @Security AdminBearer
// @Param search query string false "Поиск по кошельку или коду"
// @Param wallet_type query string false "ethereum, ton, neo"
// @Param page query int false "Страница"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} models.PageResponse[ledger.UserSummary]
// @Failure 401 {object} middleware.ErrorResponse
// @Router /admin/users [get]
func (h *AdminHandler) listUsers(c *gin.Context) {
	var q models.UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.SendValidationErrors(c, validation.BindingErrors(err), h.logger)
		return
	}

	resp, err := h.service.ListUsers(c.Request.Context(), ledger.UserFilter{
		Search:     q.Search,
		WalletType: ledger.WalletType(q.WalletType),
		Page:       q.ToPage(),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Реферальные связи
// @Tags admin
// @Produce json
// @Security AdminBearer
// @Param search query string false "Поиск по кошелькам и кодам"
// @Param bonus_paid query bool false "Бонус за регистрацию выплачен"
// @Success 200 {object} models.PageResponse[ledger.ReferralView]
// @Router /admin/referrals [get]
func (h *AdminHandler) listReferrals(c *gin.Context) {
	var q models.ReferralListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.SendValidationErrors(c, validation.BindingErrors(err), h.logger)
		return
	}

	resp, err := h.service.ListReferrals(c.Request.Context(), ledger.ReferralFilter{
		Search:    q.Search,
		BonusPaid: q.BonusPaid,
		Page:      q.ToPage(),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Стейки
// @Tags admin
// @Produce json
// @Security AdminBearer
// @Param search query string false "Поиск по кошельку, коду или хэшу"
// @Param is_unlocked query bool false "Статус"
// @Param days_remaining query string false "expired, less_than_30, 30_to_90, more_than_90"
// @Success 200 {object} models.PageResponse[ledger.StakeView]
// @Router /admin/stakes [get]
func (h *AdminHandler) listStakes(c *gin.Context) {
	var q models.StakeListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.SendValidationErrors(c, validation.BindingErrors(err), h.logger)
		return
	}

	resp, err := h.service.ListStakes(c.Request.Context(), ledger.StakeFilter{
		Search:        q.Search,
		IsUnlocked:    q.IsUnlocked,
		DaysRemaining: ledger.DaysRemainingBucket(q.DaysRemaining),
		Page:          q.ToPage(),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Награды
// @Tags admin
// @Produce json
// @Security AdminBearer
// @Param search query string false "Поиск по кошельку или коду"
// @Param reward_type query string false "Тип награды"
// @Param is_paid query bool false "Выплачена"
// @Success 200 {object} models.PageResponse[ledger.RewardView]
// @Router /admin/rewards [get]
func (h *AdminHandler) listRewards(c *gin.Context) {
	var q models.RewardListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.SendValidationErrors(c, validation.BindingErrors(err), h.logger)
		return
	}

	resp, err := h.service.ListRewards(c.Request.Context(), ledger.RewardFilter{
		Search:     q.Search,
		RewardType: ledger.RewardType(q.RewardType),
		IsPaid:     q.IsPaid,
		Page:       q.ToPage(),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Отметить стейки разблокированными
// @Description Проводит разблокировку без проверки срока. Дата разблокировки не меняется.
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminBearer
// @Param input body models.IDsRequest true "ID стейков"
// @Success 200 {object} models.BatchUnlockResponse
// @Router /admin/stakes/mark-unlocked [post]
func (h *AdminHandler) markUnlocked(c *gin.Context) {
	h.unlockStakes(c, false)
}

// @Summary Принудительная разблокировка
// @Description Как mark-unlocked, дополнительно переносит unlock_date на текущий момент
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminBearer
// @Param input body models.IDsRequest true "ID стейков"
// @Success 200 {object} models.BatchUnlockResponse
// @Router /admin/stakes/force-unlock [post]
func (h *AdminHandler) forceUnlock(c *gin.Context) {
	h.unlockStakes(c, true)
}

func (h *AdminHandler) unlockStakes(c *gin.Context, force bool) {
	var req models.IDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendValidationErrors(c, validation.BindingErrors(err), h.logger)
		return
	}

	resp, err := h.service.UnlockStakes(c.Request.Context(), req.IDs, force)
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Info("Admin unlocked stakes",
		zap.String("admin", c.GetString(middleware.AdminSubjectKey)),
		zap.Bool("force", force),
		zap.Int("unlocked", resp.Unlocked),
	)
	c.JSON(http.StatusOK, resp)
}

// @Summary Отметить награды выплаченными
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminBearer
// @Param input body models.IDsRequest true "ID наград"
// @Success 200 {object} models.MarkPaidResponse
// @Router /admin/rewards/mark-paid [post]
func (h *AdminHandler) markPaid(c *gin.Context) {
	var req models.IDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendValidationErrors(c, validation.BindingErrors(err), h.logger)
		return
	}

	resp, err := h.service.MarkRewardsPaid(c.Request.Context(), req.IDs)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Дашборд
// @Tags admin
// @Produce json
// @Security AdminBearer
// @Success 200 {object} models.DashboardResponse
// @Router /admin/dashboard [get]
func (h *AdminHandler) dashboard(c *gin.Context) {
	resp, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Ежемесячный отчет
// @Tags admin
// @Produce json
// @Security AdminBearer
// @Success 200 {object} models.MonthlyReportResponse
// @Router /admin/reports/monthly [get]
func (h *AdminHandler) monthlyReport(c *gin.Context) {
	resp, err := h.service.MonthlyReport(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
