package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/dtos"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/routes"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/services"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/testhelpers"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

func newDeleteRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/"+id, nil)
	return mux.SetURLVars(req, map[string]string{routes.AccountIDVar: id})
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestDeleteAccountHandler(t *testing.T) {
	loc := testhelpers.Tokyo(t)
	fixedNow := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")

	t.Run("tombstones the account", func(t *testing.T) {
		store := testhelpers.NewMemStore()
		id := uuid.New()
		store.Data().UserAccounts[id] = &models.UserAccount{
			UserAccountID: id,
			EmailAddress:  "user@example.com",
			CreatedAt:     fixedNow.AddDate(-1, 0, 0),
		}
		store.Data().Documents[id] = &models.ConsultantDocument{UserAccountID: id, DocumentID: "doc-1"}
		search := &testhelpers.MockSearchIndex{}
		search.On("DeleteDocument", mock.Anything, "doc-1").Return(nil).Once()

		ctrl := NewAccountController(services.NewAccountDeletionService(store, &testhelpers.MockPaymentPlatform{}, search), loc)
		ctrl.now = func() time.Time { return fixedNow.UTC() }

		rr := httptest.NewRecorder()
		ctrl.DeleteAccountHandler(rr, newDeleteRequest(id.String()))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp dtos.DeleteAccountResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, id, resp.UserAccountID)
		assert.True(t, resp.DeletedAt.Equal(fixedNow))

		assert.NotContains(t, store.Data().UserAccounts, id)
		require.Contains(t, store.Data().DeletedUserAccounts, id)
		assert.Equal(t, loc, store.Data().DeletedUserAccounts[id].DeletedAt.Location())
		assert.NotContains(t, store.Data().Documents, id)
		search.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		ctrl := NewAccountController(services.NewAccountDeletionService(testhelpers.NewMemStore(), nil, nil), loc)

		rr := httptest.NewRecorder()
		ctrl.DeleteAccountHandler(rr, newDeleteRequest("not-a-uuid"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, utils.ErrCodeInvalidPayload, decodeError(t, rr).Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		ctrl := NewAccountController(services.NewAccountDeletionService(testhelpers.NewMemStore(), nil, nil), loc)

		rr := httptest.NewRecorder()
		ctrl.DeleteAccountHandler(rr, newDeleteRequest(uuid.NewString()))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, utils.ErrCodeNotFound, decodeError(t, rr).Code)
	})

	t.Run("search failure asks for retry", func(t *testing.T) {
		store := testhelpers.NewMemStore()
		id := uuid.New()
		store.Data().UserAccounts[id] = &models.UserAccount{UserAccountID: id, EmailAddress: "user@example.com"}
		store.Data().Documents[id] = &models.ConsultantDocument{UserAccountID: id, DocumentID: "doc-1"}
		search := &testhelpers.MockSearchIndex{}
		search.On("DeleteDocument", mock.Anything, mock.Anything).
			Return(&utils.SearchIndexError{Op: "DeleteDocument", Err: errors.New("503")})

		ctrl := NewAccountController(services.NewAccountDeletionService(store, &testhelpers.MockPaymentPlatform{}, search), loc)

		rr := httptest.NewRecorder()
		ctrl.DeleteAccountHandler(rr, newDeleteRequest(id.String()))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, utils.ErrCodeExternalServiceFailure, decodeError(t, rr).Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		store := testhelpers.NewMemStore()
		store.FailOn("settlements.ListByConsultantID", &utils.StorageError{Op: "settlements.ListByConsultantID", Err: errors.New("too many connections")})
		ctrl := NewAccountController(services.NewAccountDeletionService(store, nil, nil), loc)

		rr := httptest.NewRecorder()
		ctrl.DeleteAccountHandler(rr, newDeleteRequest(uuid.NewString()))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, utils.ErrCodeInternal, decodeError(t, rr).Code)
	})
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(_ context.Context) error { return p.err }

func TestHealthCheckHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthController(fakePinger{}).HealthCheckHandler(rr, httptest.NewRequest(http.MethodGet, routes.Health, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewHealthController(fakePinger{err: errors.New("dial tcp: refused")}).HealthCheckHandler(rr, httptest.NewRequest(http.MethodGet, routes.Health, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
