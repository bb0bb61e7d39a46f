package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "referral-staking-backend/internal/common/errors"
	"referral-staking-backend/internal/common/middleware"
	"referral-staking-backend/internal/common/validation"
	"referral-staking-backend/internal/features/staking/models"
	"referral-staking-backend/internal/features/staking/service"
)

type StakingHandler struct {
	service service.StakingService
	logger  *zap.Logger
}

func NewStakingHandler(service service.StakingService, logger *zap.Logger) *StakingHandler {
	return &StakingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *StakingHandler) RegisterRoutes(router *gin.RouterGroup) {
	wrap := middleware.HandleErrorWrapper(h.logger)

	staking := router.Group("/staking")
	{
		staking.POST("/process", wrap(h.process))
		staking.POST("/unlock/:staking_id", wrap(h.unlock))
		staking.GET("/list/:wallet_address", wrap(h.list))
	}
}

// @Summary Создать стейк
// @Description Записывает стейк на 365 дней, начисляет 5% стейкеру и 5% пригласившему
// @Tags staking
// @Accept json
// @Produce json
// @Param input body models.ProcessStakeRequest true "Кошелек, сумма и хэш транзакции"
// @Success 200 {object} models.StakeResponse
// @Failure 400 {object} middleware.ErrorResponse "Неверная сумма или повторный хэш"
// @Failure 404 {object} middleware.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} middleware.ErrorResponse "Транзакция отменена"
// @Router /staking/process [post]
func (h *StakingHandler) process(c *gin.Context) {
	var req models.ProcessStakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendValidationErrors(c, validation.BindingErrors(err), h.logger)
		return
	}

	resp, err := h.service.CreateStake(c.Request.Context(), service.CreateStakeInput{
		WalletAddress: req.WalletAddress,
		Amount:        string(req.Amount),
		TxHash:        req.TxHash,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Разблокировать стейк
// @Description Освобождает стейк после окончания срока. Баланс токенов не меняется.
// @Tags staking
// @Produce json
// @Param staking_id path int true "ID стейка"
// @Success 200 {object} models.UnlockResponse
// @Failure 400 {object} middleware.ErrorResponse "Стейк заблокирован или уже разблокирован"
// @Failure 404 {object} middleware.ErrorResponse "Стейк не найден"
// @Router /staking/unlock/{staking_id} [post]
func (h *StakingHandler) unlock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("staking_id"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewValidationError("staking_id", "must be an integer"))
		return
	}

	resp, err := h.service.UnlockStake(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Стейки пользователя
// @Description Возвращает стейки кошелька, новые первыми
// @Tags staking
// @Produce json
// @Param wallet_address path string true "Адрес кошелька"
// @Success 200 {object} models.StakeListResponse
// @Failure 404 {object} middleware.ErrorResponse "Пользователь не найден"
// @Router /staking/list/{wallet_address} [get]
func (h *StakingHandler) list(c *gin.Context) {
	resp, err := h.service.ListStakes(c.Request.Context(), c.Param("wallet_address"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
