package service

import (
	"testing"

	"github.com/prepflow/internal/cache"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
)

func containsChannel(channels []string, target string) bool {
	for _, channel := range channels {
		if channel == target {
			return true
		}
	}
	return false
}

func TestPaymentUpdatedReachesCustomerAndStaff(t *testing.T) {
	orderID := uint(12)
	payment := &models.Payment{
		ID:      3,
		UserID:  7,
		OrderID: &orderID,
		TxnRef:  "PY20260831000001",
		Status:  constants.PaymentStatusSuccess,
	}

	payload := paymentUpdatedPayload(payment)
	if payload.Event != constants.NotificationEventPaymentUpdated {
		t.Fatalf("unexpected event: %s", payload.Event)
	}
	if payload.CustomerID != payment.UserID {
		t.Fatalf("expected customer id %d, got %d", payment.UserID, payload.CustomerID)
	}
	if !payload.Broadcast {
		t.Fatal("expected payment update broadcast to staff")
	}
	if payload.Data["order_id"] != orderID {
		t.Fatalf("expected order id in payload data, got %+v", payload.Data)
	}

	channels := dispatchChannels(payload)
	if !containsChannel(channels, cache.CustomerChannel(payment.UserID)) {
		t.Fatalf("expected customer channel, got %v", channels)
	}
	if !containsChannel(channels, constants.ChannelStaffAll) {
		t.Fatalf("expected staff broadcast channel, got %v", channels)
	}
}

func TestDispatchChannelsSkipEmptyTargets(t *testing.T) {
	payload := paymentUpdatedPayload(&models.Payment{TxnRef: "PY20260831000002"})
	channels := dispatchChannels(payload)
	if containsChannel(channels, cache.CustomerChannel(0)) {
		t.Fatalf("expected no customer channel without an owner, got %v", channels)
	}
	if !containsChannel(channels, constants.ChannelStaffAll) {
		t.Fatalf("expected staff broadcast channel, got %v", channels)
	}
}
