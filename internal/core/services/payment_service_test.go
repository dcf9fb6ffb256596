package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/models"
	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/repositories"
	"github.com/villalobos-05/pagame-backend/internal/pkg/identifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakePaymentRepo is an in-memory PaymentRepository. Mark* hold the mutex
// across predicate check and write, mirroring the per-record atomicity of
// the store's conditional updates.
type fakePaymentRepo struct {
	mu       sync.Mutex
	nextID   uint
	payments map[uint]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{nextID: 1, payments: make(map[uint]*models.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment.ID = r.nextID
	payment.CreatedAt = time.Now()
	r.nextID++
	r.payments[payment.ID] = payment
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id uint) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *payment
	return &copied, nil
}

func (r *fakePaymentRepo) MarkUnchecked(_ context.Context, paymentID, payerID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[paymentID]
	if !ok || payment.PayerID != payerID || payment.Status != models.StatusUnpaid {
		return false, nil
	}
	payment.Status = models.StatusUnchecked
	return true, nil
}

func (r *fakePaymentRepo) MarkChecked(_ context.Context, paymentID, receiverID uint, status models.PaymentStatus, checkedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[paymentID]
	if !ok || payment.ReceiverID != receiverID {
		return false, nil
	}
	payment.Status = status
	payment.CheckedAt = &checkedAt
	return true, nil
}

func (r *fakePaymentRepo) ListForUser(_ context.Context, filter repositories.PaymentFilter) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, payment := range r.payments {
		switch {
		case filter.PayerID != nil:
			if payment.PayerID != *filter.PayerID || payment.ReceiverID != filter.CallerID {
				continue
			}
		case filter.ReceiverID != nil:
			if payment.PayerID != filter.CallerID || payment.ReceiverID != *filter.ReceiverID {
				continue
			}
		default:
			if payment.PayerID != filter.CallerID && payment.ReceiverID != filter.CallerID {
				continue
			}
		}
		if filter.Status != nil && payment.Status != *filter.Status {
			continue
		}
		copied := *payment
		out = append(out, &copied)
	}
	return out, nil
}

// --- helpers ---

func newTestPaymentService(t *testing.T) (*PaymentService, *fakePaymentRepo, uint, uint) {
	t.Helper()
	userRepo := newFakeUserRepo()
	paymentRepo := newFakePaymentRepo()

	receiver := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	payer := &models.User{Username: "bob", Email: "bob@example.com", Password: "x"}
	require.NoError(t, userRepo.Create(context.Background(), receiver))
	require.NoError(t, userRepo.Create(context.Background(), payer))

	return NewPaymentService(paymentRepo, userRepo), paymentRepo, receiver.ID, payer.ID
}

func createPayment(t *testing.T, svc *PaymentService, receiverID, payerID uint, amount float64, issue string) *models.Payment {
	t.Helper()
	payment, err := svc.Create(context.Background(), receiverID, &CreatePaymentInput{
		PayerID: identifier.Format(payerID),
		Amount:  amount,
		Issue:   issue,
	})
	require.NoError(t, err)
	return payment
}

// --- tests ---

func TestCreate_Success(t *testing.T) {
	svc, _, receiverID, payerID := newTestPaymentService(t)

	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")

	assert.NotZero(t, payment.ID)
	assert.Equal(t, models.StatusUnpaid, payment.Status)
	assert.Equal(t, receiverID, payment.ReceiverID)
	assert.Equal(t, payerID, payment.PayerID)
	assert.Nil(t, payment.CheckedAt)
	assert.False(t, payment.CreatedAt.IsZero())
}

func TestCreate_Validation(t *testing.T) {
	svc, _, receiverID, payerID := newTestPaymentService(t)
	ctx := context.Background()
	payer := identifier.Format(payerID)

	_, err := svc.Create(ctx, receiverID, &CreatePaymentInput{PayerID: payer, Amount: 0, Issue: "x"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Create(ctx, receiverID, &CreatePaymentInput{PayerID: payer, Amount: -5, Issue: "x"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	longIssue := "this issue description is way too long to fit"
	require.Greater(t, len(longIssue), models.MaxIssueLength)
	_, err = svc.Create(ctx, receiverID, &CreatePaymentInput{PayerID: payer, Amount: 1, Issue: longIssue})
	assert.ErrorIs(t, err, ErrIssueTooLong)

	_, err = svc.Create(ctx, receiverID, &CreatePaymentInput{PayerID: "not-an-id", Amount: 1, Issue: "x"})
	assert.ErrorIs(t, err, identifier.ErrInvalidID)
}

func TestPay_Success(t *testing.T) {
	svc, repo, receiverID, payerID := newTestPaymentService(t)
	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")

	require.NoError(t, svc.Pay(context.Background(), payment.ID, payerID))

	stored, err := repo.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnchecked, stored.Status)
	assert.Nil(t, stored.CheckedAt)
}

func TestPay_UnknownCaller(t *testing.T) {
	svc, _, receiverID, payerID := newTestPaymentService(t)
	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")

	err := svc.Pay(context.Background(), payment.ID, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPay_UnknownPayment(t *testing.T) {
	svc, _, _, payerID := newTestPaymentService(t)

	err := svc.Pay(context.Background(), 999, payerID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestPay_NotThePayer(t *testing.T) {
	svc, repo, receiverID, payerID := newTestPaymentService(t)
	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")

	// The receiver cannot pay their own request.
	err := svc.Pay(context.Background(), payment.ID, receiverID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	stored, err := repo.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnpaid, stored.Status)
}

func TestPay_NotUnpaid(t *testing.T) {
	svc, repo, receiverID, payerID := newTestPaymentService(t)
	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")
	ctx := context.Background()

	require.NoError(t, svc.Pay(ctx, payment.ID, payerID))

	err := svc.Pay(ctx, payment.ID, payerID)
	assert.ErrorIs(t, err, ErrPaymentConflict)

	stored, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnchecked, stored.Status)
}

func TestPay_ConcurrentExactlyOneWins(t *testing.T) {
	svc, repo, receiverID, payerID := newTestPaymentService(t)
	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Pay(ctx, payment.ID, payerID)
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrPaymentConflict)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent pay should transition the record")

	stored, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnchecked, stored.Status)
}

func TestCheck_Confirm(t *testing.T) {
	svc, repo, receiverID, payerID := newTestPaymentService(t)
	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")
	ctx := context.Background()

	require.NoError(t, svc.Pay(ctx, payment.ID, payerID))
	require.NoError(t, svc.Check(ctx, payment.ID, receiverID, false))

	stored, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)
	require.NotNil(t, stored.CheckedAt)
	assert.True(t, stored.IsTerminal())
}

func TestCheck_Reject(t *testing.T) {
	svc, repo, receiverID, payerID := newTestPaymentService(t)
	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")
	ctx := context.Background()

	require.NoError(t, svc.Pay(ctx, payment.ID, payerID))
	require.NoError(t, svc.Check(ctx, payment.ID, receiverID, true))

	stored, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, stored.Status)
	require.NotNil(t, stored.CheckedAt)
}

func TestCheck_NotTheReceiver(t *testing.T) {
	svc, repo, receiverID, payerID := newTestPaymentService(t)
	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")
	ctx := context.Background()

	err := svc.Check(ctx, payment.ID, payerID, false)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	stored, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnpaid, stored.Status)
	assert.Nil(t, stored.CheckedAt)
}

func TestCheck_UnknownCaller(t *testing.T) {
	svc, _, receiverID, payerID := newTestPaymentService(t)
	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")

	err := svc.Check(context.Background(), payment.ID, 999, false)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLifecycle(t *testing.T) {
	// alice requests 50.0 from bob for "lunch": unpaid → unchecked → paid.
	svc, repo, receiverID, payerID := newTestPaymentService(t)
	ctx := context.Background()

	payment := createPayment(t, svc, receiverID, payerID, 50.0, "lunch")
	assert.Equal(t, models.StatusUnpaid, payment.Status)

	require.NoError(t, svc.Pay(ctx, payment.ID, payerID))
	stored, _ := repo.GetByID(ctx, payment.ID)
	assert.Equal(t, models.StatusUnchecked, stored.Status)

	require.NoError(t, svc.Check(ctx, payment.ID, receiverID, false))
	stored, _ = repo.GetByID(ctx, payment.ID)
	assert.Equal(t, models.StatusPaid, stored.Status)
	assert.NotNil(t, stored.CheckedAt)
}

func TestList_Filters(t *testing.T) {
	userRepo := newFakeUserRepo()
	paymentRepo := newFakePaymentRepo()
	svc := NewPaymentService(paymentRepo, userRepo)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	bob := &models.User{Username: "bob", Email: "bob@example.com", Password: "x"}
	carol := &models.User{Username: "carol", Email: "carol@example.com", Password: "x"}
	for _, u := range []*models.User{alice, bob, carol} {
		require.NoError(t, userRepo.Create(ctx, u))
	}

	// alice ← bob, alice ← carol, bob ← alice
	createPayment(t, svc, alice.ID, bob.ID, 10, "a")
	createPayment(t, svc, alice.ID, carol.ID, 20, "b")
	p3 := createPayment(t, svc, bob.ID, alice.ID, 30, "c")

	// No filters: everything alice is involved in, either side.
	all, err := svc.List(ctx, repositories.PaymentFilter{CallerID: alice.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// What bob owes alice.
	owedByBob, err := svc.List(ctx, repositories.PaymentFilter{CallerID: alice.ID, PayerID: &bob.ID})
	require.NoError(t, err)
	require.Len(t, owedByBob, 1)
	assert.Equal(t, 10.0, owedByBob[0].Amount)

	// What alice owes bob.
	owedToBob, err := svc.List(ctx, repositories.PaymentFilter{CallerID: alice.ID, ReceiverID: &bob.ID})
	require.NoError(t, err)
	require.Len(t, owedToBob, 1)
	assert.Equal(t, 30.0, owedToBob[0].Amount)

	// Status filter narrows across the caller's payments.
	require.NoError(t, svc.Pay(ctx, p3.ID, alice.ID))
	unchecked := models.StatusUnchecked
	got, err := svc.List(ctx, repositories.PaymentFilter{CallerID: alice.ID, Status: &unchecked})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p3.ID, got[0].ID)

	// Carol sees only her own obligation.
	carols, err := svc.List(ctx, repositories.PaymentFilter{CallerID: carol.ID})
	require.NoError(t, err)
	require.Len(t, carols, 1)
	assert.Equal(t, 20.0, carols[0].Amount)
}
