package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/dtos"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/routes"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

// AccountDeleter is the online half of the account deletion cascade.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, accountID uuid.UUID, now time.Time) error
}

type AccountController struct {
	deleter  AccountDeleter
	location *time.Location
	now      func() time.Time
}

func NewAccountController(deleter AccountDeleter, location *time.Location) *AccountController {
	return &AccountController{
		deleter:  deleter,
		location: location,
		now:      time.Now,
	}
}

// DeleteAccountHandler handles DELETE /api/v1/accounts/{account_id}.
func (c *AccountController) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)[routes.AccountIDVar]
	accountID, err := uuid.Parse(raw)
	if err != nil {
		utils.HandleAppError(w, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidPayload,
			Message:    "account_id must be a UUID",
			Err:        errors.Join(utils.ErrInvalidAccountID, err),
		})
		return
	}

	deletedAt := c.now().In(c.location)
	if err := c.deleter.DeleteAccount(r.Context(), accountID, deletedAt); err != nil {
		utils.HandleAppError(w, toAppError(err))
		return
	}

	utils.Logger.WithField("user_account_id", accountID).Info("Account deletion accepted")
	utils.RespondWithJSON(w, http.StatusOK, dtos.DeleteAccountResponse{
		UserAccountID: accountID,
		DeletedAt:     deletedAt,
	})
}

func toAppError(err error) *utils.AppError {
	var searchErr *utils.SearchIndexError
	switch {
	case errors.Is(err, utils.ErrRecordNotFound):
		return &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Account not found",
			Err:        err,
		}
	case errors.As(err, &searchErr):
		return &utils.AppError{
			StatusCode: http.StatusBadGateway,
			Code:       utils.ErrCodeExternalServiceFailure,
			Message:    "Search index unavailable; retry the deletion",
			Err:        err,
		}
	default:
		return &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to delete account",
			Err:        err,
		}
	}
}
