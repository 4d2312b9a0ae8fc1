package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/amaumene/reelwatch/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AccountStore manages tracked accounts
type AccountStore interface {
	ListAccounts(ctx context.Context) ([]models.SocialAccount, error)
	UpsertAccount(ctx context.Context, a *models.SocialAccount) (*models.SocialAccount, error)
	ToggleAccount(ctx context.Context, id uint) (*models.SocialAccount, error)
	DeleteAccount(ctx context.Context, id uint) error
}

// AccountsHandler handles account administration
type AccountsHandler struct {
	store      AccountStore
	invalidate func()
	logger     zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler. invalidate is called
// after every change so cached stats pick up the new active count.
func NewAccountsHandler(store AccountStore, invalidate func(), logger zerolog.Logger) *AccountsHandler {
	if invalidate == nil {
		invalidate = func() {}
	}
	return &AccountsHandler{store: store, invalidate: invalidate, logger: logger}
}

// AccountRequest is the body of POST /api/accounts
type AccountRequest struct {
	Name        string             `json:"name"`
	Platform    models.Platform    `json:"platform"`
	Username    string             `json:"username"`
	AccountType models.AccountType `json:"account_type"`
	Language    models.Language    `json:"language"`
	Active      *bool              `json:"is_active"`
}

func (r *AccountRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)
	switch {
	case r.Name == "":
		return errors.New("name is required")
	case r.Username == "":
		return errors.New("username is required")
	case !r.Platform.Valid():
		return errors.New("unknown platform")
	case r.AccountType != "" && !r.AccountType.Valid():
		return errors.New("unknown account_type")
	case r.Language != "" && !r.Language.Valid():
		return errors.New("unknown language")
	}
	return nil
}

// List handles GET /api/accounts
func (h *AccountsHandler) List(c *fiber.Ctx) error {
	accounts, err := h.store.ListAccounts(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list accounts")
		return errorResponse(c, fiber.StatusInternalServerError, "failed to list accounts")
	}
	return c.JSON(fiber.Map{"accounts": accounts})
}

// Save handles POST /api/accounts; an existing platform/username is updated
func (h *AccountsHandler) Save(c *fiber.Ctx) error {
	var req AccountRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	account := &models.SocialAccount{
		Name:        req.Name,
		Platform:    req.Platform,
		Username:    req.Username,
		AccountType: req.AccountType,
		Language:    req.Language,
		Active:      req.Active == nil || *req.Active,
	}
	if account.Language == "" {
		account.Language = models.LanguageUnknown
	}

	saved, err := h.store.UpsertAccount(c.UserContext(), account)
	if err != nil {
		h.logger.Error().Err(err).Str("username", req.Username).Msg("Failed to save account")
		return errorResponse(c, fiber.StatusInternalServerError, "failed to save account")
	}
	h.invalidate()

	h.logger.Info().
		Str("platform", string(saved.Platform)).
		Str("username", saved.Username).
		Bool("active", saved.Active).
		Msg("Account saved")
	return c.JSON(saved)
}

// Toggle handles POST /api/accounts/:id/toggle
func (h *AccountsHandler) Toggle(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid id")
	}

	account, err := h.store.ToggleAccount(c.UserContext(), uint(id))
	if errors.Is(err, models.ErrNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "account not found")
	}
	if err != nil {
		h.logger.Error().Err(err).Uint64("account_id", id).Msg("Failed to toggle account")
		return errorResponse(c, fiber.StatusInternalServerError, "failed to toggle account")
	}
	h.invalidate()
	return c.JSON(account)
}

// Delete handles DELETE /api/accounts/:id
func (h *AccountsHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid id")
	}

	err = h.store.DeleteAccount(c.UserContext(), uint(id))
	if errors.Is(err, models.ErrNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "account not found")
	}
	if err != nil {
		h.logger.Error().Err(err).Uint64("account_id", id).Msg("Failed to delete account")
		return errorResponse(c, fiber.StatusInternalServerError, "failed to delete account")
	}
	h.invalidate()
	return c.SendStatus(fiber.StatusNoContent)
}
