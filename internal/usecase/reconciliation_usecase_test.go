package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"yangu_payments/internal/domain/entities"
	mock_interfaces "yangu_payments/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

func TestReconciliationUseCase_Reconcile_Orphan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
	orders := mock_interfaces.NewMockIOrderRepository(ctrl)
	uc := NewReconciliationUseCase(payments, orders)

	payments.EXPECT().GetByTransactionRef(gomock.Any(), "yangu_unknown_1").Return(entities.Payment{}, nil)

	res, err := uc.Reconcile(context.Background(), "yangu_unknown_1", entities.OutcomeSuccess, json.RawMessage(`{}`), "flw-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Disposition != DispositionOrphaned {
		t.Fatalf("expected orphaned disposition, got %s", res.Disposition)
	}
	if res.Payment.ID != "" {
		t.Fatalf("orphaned event must not materialize a payment, got %+v", res.Payment)
	}
}

func TestReconciliationUseCase_Reconcile_AppliesOnceAndSyncsOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
	orders := mock_interfaces.NewMockIOrderRepository(ctrl)
	uc := NewReconciliationUseCase(payments, orders)

	initiated := entities.Payment{ID: "pay-1", OrderRef: "order-1", TransactionRef: "yangu_pay-1_1", Status: entities.PaymentStatusInitiated}
	paid := initiated
	paid.Status = entities.PaymentStatusPaid
	payload := json.RawMessage(`{"status":"successful"}`)

	payments.EXPECT().GetByTransactionRef(gomock.Any(), "yangu_pay-1_1").Return(initiated, nil)
	payments.EXPECT().Finalize(gomock.Any(), "pay-1", entities.PaymentStatusPaid, payload, "flw-9").Return(paid, true, nil)
	orders.EXPECT().MarkPaymentResult(gomock.Any(), "order-1", entities.OrderStatusPaid).Return(true, nil)

	res, err := uc.Reconcile(context.Background(), "yangu_pay-1_1", entities.OutcomeSuccess, payload, "flw-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Disposition != DispositionApplied {
		t.Fatalf("expected applied disposition, got %s", res.Disposition)
	}
	if res.Payment.Status != entities.PaymentStatusPaid {
		t.Fatalf("expected paid payment, got %s", res.Payment.Status)
	}
	if res.OrderSyncErr != nil {
		t.Fatalf("unexpected order sync error: %v", res.OrderSyncErr)
	}
}

func TestReconciliationUseCase_Reconcile_DuplicateDelivery(t *testing.T) {
	t.Run("already terminal before finalize", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		orders := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewReconciliationUseCase(payments, orders)

		paid := entities.Payment{ID: "pay-1", OrderRef: "order-1", TransactionRef: "yangu_pay-1_1", Status: entities.PaymentStatusPaid}
		payments.EXPECT().GetByTransactionRef(gomock.Any(), "yangu_pay-1_1").Return(paid, nil)
		// No Finalize, no MarkPaymentResult: the duplicate must not re-fire side effects.

		res, err := uc.Reconcile(context.Background(), "yangu_pay-1_1", entities.OutcomeSuccess, json.RawMessage(`{}`), "flw-9")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Disposition != DispositionAlreadyTerminal {
			t.Fatalf("expected already_terminal, got %s", res.Disposition)
		}
		if res.Payment.Status != entities.PaymentStatusPaid {
			t.Fatalf("payment must keep its terminal status, got %s", res.Payment.Status)
		}
	})

	t.Run("lost race at finalize", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		orders := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewReconciliationUseCase(payments, orders)

		initiated := entities.Payment{ID: "pay-1", OrderRef: "order-1", TransactionRef: "yangu_pay-1_1", Status: entities.PaymentStatusInitiated}
		failed := initiated
		failed.Status = entities.PaymentStatusFailed

		payments.EXPECT().GetByTransactionRef(gomock.Any(), "yangu_pay-1_1").Return(initiated, nil)
		payments.EXPECT().Finalize(gomock.Any(), "pay-1", entities.PaymentStatusPaid, gomock.Any(), "flw-9").Return(failed, false, nil)
		// A concurrent delivery already finalized to failed; a late "successful"
		// event must not resurrect or flip it, and must not touch the order.

		res, err := uc.Reconcile(context.Background(), "yangu_pay-1_1", entities.OutcomeSuccess, json.RawMessage(`{}`), "flw-9")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Disposition != DispositionAlreadyTerminal {
			t.Fatalf("expected already_terminal, got %s", res.Disposition)
		}
		if res.Payment.Status != entities.PaymentStatusFailed {
			t.Fatalf("expected the committed failed status, got %s", res.Payment.Status)
		}
	})
}

func TestReconciliationUseCase_Reconcile_FailureOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
	orders := mock_interfaces.NewMockIOrderRepository(ctrl)
	uc := NewReconciliationUseCase(payments, orders)

	initiated := entities.Payment{ID: "pay-2", OrderRef: "order-2", TransactionRef: "yangu_pay-2_1", Status: entities.PaymentStatusInitiated}
	failed := initiated
	failed.Status = entities.PaymentStatusFailed

	payments.EXPECT().GetByTransactionRef(gomock.Any(), "yangu_pay-2_1").Return(initiated, nil)
	payments.EXPECT().Finalize(gomock.Any(), "pay-2", entities.PaymentStatusFailed, gomock.Any(), "").Return(failed, true, nil)
	orders.EXPECT().MarkPaymentResult(gomock.Any(), "order-2", entities.OrderStatusPaymentFailed).Return(true, nil)

	res, err := uc.Reconcile(context.Background(), "yangu_pay-2_1", entities.OutcomeFailure, json.RawMessage(`{"status":"failed"}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Disposition != DispositionApplied {
		t.Fatalf("expected applied, got %s", res.Disposition)
	}
}

func TestReconciliationUseCase_Reconcile_OrderSyncFailureKeepsPayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
	orders := mock_interfaces.NewMockIOrderRepository(ctrl)
	uc := NewReconciliationUseCase(payments, orders)

	initiated := entities.Payment{ID: "pay-3", OrderRef: "order-3", TransactionRef: "yangu_pay-3_1", Status: entities.PaymentStatusInitiated}
	paid := initiated
	paid.Status = entities.PaymentStatusPaid

	payments.EXPECT().GetByTransactionRef(gomock.Any(), "yangu_pay-3_1").Return(initiated, nil)
	payments.EXPECT().Finalize(gomock.Any(), "pay-3", entities.PaymentStatusPaid, gomock.Any(), "flw-3").Return(paid, true, nil)
	orders.EXPECT().MarkPaymentResult(gomock.Any(), "order-3", entities.OrderStatusPaid).Return(false, errors.New("dynamodb down"))

	res, err := uc.Reconcile(context.Background(), "yangu_pay-3_1", entities.OutcomeSuccess, json.RawMessage(`{}`), "flw-3")
	if err != nil {
		t.Fatalf("the payment transition committed, reconcile must not fail: %v", err)
	}
	if res.Disposition != DispositionApplied {
		t.Fatalf("expected applied, got %s", res.Disposition)
	}
	if !errors.Is(res.OrderSyncErr, ErrOrderSyncFailed) {
		t.Fatalf("expected ErrOrderSyncFailed, got %v", res.OrderSyncErr)
	}
	if res.Payment.Status != entities.PaymentStatusPaid {
		t.Fatalf("payment must stand despite order sync failure, got %s", res.Payment.Status)
	}
}

func TestReconciliationUseCase_Reconcile_OrderNotPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
	orders := mock_interfaces.NewMockIOrderRepository(ctrl)
	uc := NewReconciliationUseCase(payments, orders)

	initiated := entities.Payment{ID: "pay-4", OrderRef: "order-4", TransactionRef: "yangu_pay-4_1", Status: entities.PaymentStatusInitiated}
	paid := initiated
	paid.Status = entities.PaymentStatusPaid

	payments.EXPECT().GetByTransactionRef(gomock.Any(), "yangu_pay-4_1").Return(initiated, nil)
	payments.EXPECT().Finalize(gomock.Any(), "pay-4", entities.PaymentStatusPaid, gomock.Any(), "flw-4").Return(paid, true, nil)
	orders.EXPECT().MarkPaymentResult(gomock.Any(), "order-4", entities.OrderStatusPaid).Return(false, nil)

	res, err := uc.Reconcile(context.Background(), "yangu_pay-4_1", entities.OutcomeSuccess, json.RawMessage(`{}`), "flw-4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OrderSyncErr != nil {
		t.Fatalf("an order that left pending is not an error, got %v", res.OrderSyncErr)
	}
}

func TestReconciliationUseCase_Reconcile_StorageErrors(t *testing.T) {
	t.Run("lookup fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		uc := NewReconciliationUseCase(payments, nil)

		payments.EXPECT().GetByTransactionRef(gomock.Any(), "yangu_x_1").Return(entities.Payment{}, errors.New("db"))

		_, err := uc.Reconcile(context.Background(), "yangu_x_1", entities.OutcomeSuccess, nil, "")
		if err == nil || err.Error() != "db" {
			t.Fatalf("expected db error, got %v", err)
		}
	})

	t.Run("finalize fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		uc := NewReconciliationUseCase(payments, nil)

		initiated := entities.Payment{ID: "pay-5", TransactionRef: "yangu_pay-5_1", Status: entities.PaymentStatusInitiated}
		payments.EXPECT().GetByTransactionRef(gomock.Any(), "yangu_pay-5_1").Return(initiated, nil)
		payments.EXPECT().Finalize(gomock.Any(), "pay-5", entities.PaymentStatusPaid, gomock.Any(), "").Return(entities.Payment{}, false, errors.New("db"))

		_, err := uc.Reconcile(context.Background(), "yangu_pay-5_1", entities.OutcomeSuccess, nil, "")
		if err == nil || err.Error() != "db" {
			t.Fatalf("expected db error, got %v", err)
		}
	})
}

func TestReconciliationUseCase_AdminOverride_Validations(t *testing.T) {
	t.Run("empty payment id", func(t *testing.T) {
		uc := NewReconciliationUseCase(nil, nil)
		_, err := uc.AdminOverride(context.Background(), "  ", entities.PaymentStatusPaid)
		if !errors.Is(err, ErrInvalidPaymentID) {
			t.Fatalf("expected ErrInvalidPaymentID, got %v", err)
		}
	})

	t.Run("initiated is not a valid override target", func(t *testing.T) {
		uc := NewReconciliationUseCase(nil, nil)
		_, err := uc.AdminOverride(context.Background(), "pay-1", entities.PaymentStatusInitiated)
		if !errors.Is(err, ErrInvalidOverrideStatus) {
			t.Fatalf("expected ErrInvalidOverrideStatus, got %v", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		uc := NewReconciliationUseCase(nil, nil)
		_, err := uc.AdminOverride(context.Background(), "pay-1", entities.PaymentStatus("refunded"))
		if !errors.Is(err, ErrInvalidOverrideStatus) {
			t.Fatalf("expected ErrInvalidOverrideStatus, got %v", err)
		}
	})
}

func TestReconciliationUseCase_AdminOverride(t *testing.T) {
	t.Run("override from initiated syncs order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		orders := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewReconciliationUseCase(payments, orders)

		prev := entities.Payment{ID: "pay-1", OrderRef: "order-1", Status: entities.PaymentStatusInitiated}
		current := prev
		current.Status = entities.PaymentStatusPaid

		payments.EXPECT().OverrideStatus(gomock.Any(), "pay-1", entities.PaymentStatusPaid).Return(prev, nil)
		orders.EXPECT().MarkPaymentResult(gomock.Any(), "order-1", entities.OrderStatusPaid).Return(true, nil)
		payments.EXPECT().GetByID(gomock.Any(), "pay-1").Return(current, nil)

		got, err := uc.AdminOverride(context.Background(), "pay-1", entities.PaymentStatusPaid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != entities.PaymentStatusPaid {
			t.Fatalf("expected paid, got %s", got.Status)
		}
	})

	t.Run("override from terminal does not touch the order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		orders := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewReconciliationUseCase(payments, orders)

		prev := entities.Payment{ID: "pay-1", OrderRef: "order-1", Status: entities.PaymentStatusFailed}
		current := prev
		current.Status = entities.PaymentStatusPaid

		payments.EXPECT().OverrideStatus(gomock.Any(), "pay-1", entities.PaymentStatusPaid).Return(prev, nil)
		payments.EXPECT().GetByID(gomock.Any(), "pay-1").Return(current, nil)
		// No MarkPaymentResult: the order was already settled by the first transition.

		got, err := uc.AdminOverride(context.Background(), "pay-1", entities.PaymentStatusPaid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != entities.PaymentStatusPaid {
			t.Fatalf("expected paid, got %s", got.Status)
		}
	})

	t.Run("no-op when status already matches", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		uc := NewReconciliationUseCase(payments, nil)

		current := entities.Payment{ID: "pay-1", Status: entities.PaymentStatusPaid}
		payments.EXPECT().OverrideStatus(gomock.Any(), "pay-1", entities.PaymentStatusPaid).Return(entities.Payment{}, nil)
		payments.EXPECT().GetByID(gomock.Any(), "pay-1").Return(current, nil)

		got, err := uc.AdminOverride(context.Background(), "pay-1", entities.PaymentStatusPaid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != entities.PaymentStatusPaid {
			t.Fatalf("expected paid, got %s", got.Status)
		}
	})

	t.Run("payment not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		uc := NewReconciliationUseCase(payments, nil)

		payments.EXPECT().OverrideStatus(gomock.Any(), "missing", entities.PaymentStatusPaid).Return(entities.Payment{}, nil)
		payments.EXPECT().GetByID(gomock.Any(), "missing").Return(entities.Payment{}, nil)

		_, err := uc.AdminOverride(context.Background(), "missing", entities.PaymentStatusPaid)
		if !errors.Is(err, ErrPaymentNotFound) {
			t.Fatalf("expected ErrPaymentNotFound, got %v", err)
		}
	})

	t.Run("order sync failure does not fail the override", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		orders := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewReconciliationUseCase(payments, orders)

		prev := entities.Payment{ID: "pay-1", OrderRef: "order-1", Status: entities.PaymentStatusInitiated}
		current := prev
		current.Status = entities.PaymentStatusFailed

		payments.EXPECT().OverrideStatus(gomock.Any(), "pay-1", entities.PaymentStatusFailed).Return(prev, nil)
		orders.EXPECT().MarkPaymentResult(gomock.Any(), "order-1", entities.OrderStatusPaymentFailed).Return(false, errors.New("db"))
		payments.EXPECT().GetByID(gomock.Any(), "pay-1").Return(current, nil)

		got, err := uc.AdminOverride(context.Background(), "pay-1", entities.PaymentStatusFailed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != entities.PaymentStatusFailed {
			t.Fatalf("expected failed, got %s", got.Status)
		}
	})
}
