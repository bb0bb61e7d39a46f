package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"referral-staking-backend/internal/common/middleware"
	"referral-staking-backend/internal/common/validation"
	"referral-staking-backend/internal/features/referral/models"
	"referral-staking-backend/internal/features/referral/service"
)

type ReferralHandler struct {
	service service.ReferralService
	logger  *zap.Logger
}

func NewReferralHandler(service service.ReferralService, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ReferralHandler) RegisterRoutes(router *gin.RouterGroup) {
	wrap := middleware.HandleErrorWrapper(h.logger)

	referral := router.Group("/referral")
	{
		referral.POST("/save-wallet", wrap(h.saveWallet))
		referral.GET("/user-stats/:wallet_address", wrap(h.getUserStats))
	}
}

// @Summary Сохранить кошелек
// @Description Регистрирует кошелек. Повторный вызов возвращает существующего пользователя. Если передан действующий реферальный код, пригласившему начисляется бонус.
// @Tags referral
// @Accept json
// @Produce json
// @Param input body models.SaveWalletRequest true "Кошелек и реферальный код"
// @Success 200 {object} models.SaveWalletResponse
// @Failure 400 {object} middleware.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} middleware.ErrorResponse "Внутренняя ошибка сервера"
// @Router /referral/save-wallet [post]
func (h *ReferralHandler) saveWallet(c *gin.Context) {
	var req models.SaveWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendValidationErrors(c, validation.BindingErrors(err), h.logger)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), service.RegisterInput{
		WalletAddress: req.WalletAddress,
		WalletType:    req.WalletType,
		ReferralCode:  req.ReferralCode,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Статистика пользователя
// @Description Возвращает реферальный код, ссылку, балансы и разбивку наград
// @Tags referral
// @Produce json
// @Param wallet_address path string true "Адрес кошелька"
// @Success 200 {object} models.UserStatsResponse
// @Failure 404 {object} middleware.ErrorResponse "Пользователь не найден"
// @Router /referral/user-stats/{wallet_address} [get]
func (h *ReferralHandler) getUserStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context(), c.Param("wallet_address"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
