package models

import (
	"testing"

	"shoprent/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentTransition(t *testing.T) {
	p := &Payment{ID: 1, Status: domain.PaymentStatusCreated}

	require.NoError(t, p.Transition(domain.PaymentStatusPaid))
	assert.Equal(t, domain.PaymentStatusPaid, p.Status)
	require.NotNil(t, p.PaidAt)

	// Nothing leaves PAID.
	assert.Error(t, p.Transition(domain.PaymentStatusFailed))
	assert.Error(t, p.Transition(domain.PaymentStatusPaid))
	assert.Equal(t, domain.PaymentStatusPaid, p.Status)
}

func TestPaymentTransitionFromFailed(t *testing.T) {
	p := &Payment{ID: 2, Status: domain.PaymentStatusFailed}
	assert.Error(t, p.Transition(domain.PaymentStatusPaid))
	assert.Equal(t, domain.PaymentStatusFailed, p.Status)
	assert.Nil(t, p.PaidAt)
}
