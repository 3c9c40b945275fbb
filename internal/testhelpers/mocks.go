package testhelpers

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockPaymentPlatform struct {
	mock.Mock
}

func (m *MockPaymentPlatform) ReleaseCreditHold(ctx context.Context, chargeID, reason string) error {
	args := m.Called(ctx, chargeID, reason)
	return args.Error(0)
}

func (m *MockPaymentPlatform) DeleteTenant(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendMail(ctx context.Context, to, from, subject, text string) error {
	args := m.Called(ctx, to, from, subject, text)
	return args.Error(0)
}

type MockSearchIndex struct {
	mock.Mock
}

func (m *MockSearchIndex) DeleteDocument(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}
