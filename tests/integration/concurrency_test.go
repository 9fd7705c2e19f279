package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"mobile-money-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The in-memory transactor serializes transactions with a global mutex, the
// same effect SELECT FOR UPDATE row locks have in production: every balance
// check sees the committed result of the previous operation. That makes the
// outcome of these races deterministic, so the tests assert exact counts.

// TestConcurrentWithdrawals fires 20 concurrent withdrawals of 5,000 against
// a wallet holding 50,000. Exactly 10 must succeed; the rest are rejected
// for insufficient funds and the balance never goes negative.
func TestConcurrentWithdrawals(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	agentID := seedAgent(t, app, 10_000_000)
	customerID := uuid.New()
	seedWallet(t, app, customerID, domain.WalletTypePersonal, 50_000)

	concurrency := 20
	amount := int64(5_000)

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var insufficientCount atomic.Int64
	var otherCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"customer_id":%q,"agent_id":%q,"amount":%d,"currency":"USD"}`,
				customerID, agentID, amount)
			r, err := http.Post(app.server.URL+"/api/v1/ledger/withdrawals", "application/json",
				bytes.NewBufferString(body))
			if err != nil {
				otherCount.Add(1)
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			switch r.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusPaymentRequired:
				insufficientCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	t.Logf("Concurrent withdrawals: %d succeeded, %d insufficient, %d other (out of %d)",
		successCount.Load(), insufficientCount.Load(), otherCount.Load(), concurrency)

	assert.Equal(t, int64(10), successCount.Load())
	assert.Equal(t, int64(10), insufficientCount.Load())
	assert.Equal(t, int64(0), otherCount.Load())

	_, wdata := getJSON(t, app, "/api/v1/wallets/"+customerID.String()+"?currency=USD")
	assert.Equal(t, float64(0), wdata["balance"])

	assertBalanced(t, app, domain.CurrencyUSD)
}

// TestConcurrentDeposits fires 20 concurrent deposits through one agent and
// verifies the wallet, the agent float, and the books all land on the exact
// expected totals.
func TestConcurrentDeposits(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	agentID := seedAgent(t, app, 10_000_000)
	customerID := uuid.New()
	seedWallet(t, app, customerID, domain.WalletTypePersonal, 0)

	concurrency := 20
	amount := int64(1_000) // 1% fee -> 990 net each

	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"customer_id":%q,"agent_id":%q,"amount":%d,"currency":"USD","client_reference":"bulk-%d"}`,
				customerID, agentID, amount, idx)
			r, err := http.Post(app.server.URL+"/api/v1/ledger/deposits", "application/json",
				bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			if r.StatusCode == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	t.Logf("Concurrent deposits: %d succeeded (out of %d)", successCount.Load(), concurrency)
	require.Equal(t, int64(concurrency), successCount.Load())

	_, wdata := getJSON(t, app, "/api/v1/wallets/"+customerID.String()+"?currency=USD")
	assert.Equal(t, float64(20*990), wdata["balance"])

	bal, err := app.agents.GetBalance(context.Background(), agentID, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, int64(20_000), bal.CurrentCredit)
	assert.Equal(t, int64(20_000), bal.CashCollected)

	assertBalanced(t, app, domain.CurrencyUSD)
}

// TestConcurrentOppositeTransfers runs transfers in both directions between
// the same wallet pair at once. The wallets are locked in a fixed order so
// opposite directions cannot deadlock; both sides must finish with the
// exact fee-adjusted balance.
func TestConcurrentOppositeTransfers(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceID := uuid.New()
	bobID := uuid.New()
	seedWallet(t, app, aliceID, domain.WalletTypePersonal, 30_000)
	seedWallet(t, app, bobID, domain.WalletTypePersonal, 30_000)

	perDirection := 10
	amount := int64(1_000) // 0.5% fee -> receiver gets 995

	var wg sync.WaitGroup
	var successCount atomic.Int64

	send := func(senderID, receiverID uuid.UUID) {
		defer wg.Done()
		body := fmt.Sprintf(`{"sender_id":%q,"receiver_id":%q,"amount":%d,"currency":"USD"}`,
			senderID, receiverID, amount)
		r, err := http.Post(app.server.URL+"/api/v1/ledger/transfers", "application/json",
			bytes.NewBufferString(body))
		if err != nil {
			return
		}
		defer r.Body.Close()
		_, _ = io.ReadAll(r.Body)
		if r.StatusCode == http.StatusCreated {
			successCount.Add(1)
		}
	}

	for i := 0; i < perDirection; i++ {
		wg.Add(2)
		go send(aliceID, bobID)
		go send(bobID, aliceID)
	}
	wg.Wait()

	require.Equal(t, int64(2*perDirection), successCount.Load())

	// Each side sent 10,000 and received 9,950; fees total 100.
	_, aliceData := getJSON(t, app, "/api/v1/wallets/"+aliceID.String()+"?currency=USD")
	assert.Equal(t, float64(29_950), aliceData["balance"])
	_, bobData := getJSON(t, app, "/api/v1/wallets/"+bobID.String()+"?currency=USD")
	assert.Equal(t, float64(29_950), bobData["balance"])

	assertBalanced(t, app, domain.CurrencyUSD)
}

// TestConcurrentSettlementApproval races 10 operators approving the same
// settlement. The PENDING status guard must let exactly one payout through.
func TestConcurrentSettlementApproval(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	agentID := seedAgent(t, app, 1_000_000)
	customerID := uuid.New()
	seedWallet(t, app, customerID, domain.WalletTypePersonal, 0)

	status, _ := postJSON(t, app, "/api/v1/ledger/deposits", map[string]interface{}{
		"customer_id": customerID.String(),
		"agent_id":    agentID.String(),
		"amount":      int64(20_000),
		"currency":    "USD",
	})
	require.Equal(t, http.StatusCreated, status)

	cstatus, cdata := postJSON(t, app, "/api/v1/settlements", map[string]interface{}{
		"agent_id": agentID.String(),
		"currency": "USD",
	})
	require.Equal(t, http.StatusCreated, cstatus)
	settlementID := cdata["id"].(string)

	concurrency := 10

	var wg sync.WaitGroup
	var paidCount atomic.Int64
	var conflictCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"operator_id":%q}`, uuid.NewString())
			r, err := http.Post(app.server.URL+"/api/v1/settlements/"+settlementID+"/approve",
				"application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			switch r.StatusCode {
			case http.StatusOK:
				paidCount.Add(1)
			case http.StatusConflict:
				conflictCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	t.Logf("Concurrent approvals: %d paid, %d conflicts (out of %d)",
		paidCount.Load(), conflictCount.Load(), concurrency)

	assert.Equal(t, int64(1), paidCount.Load())
	assert.Equal(t, int64(concurrency-1), conflictCount.Load())

	// Float reset exactly once
	bal, err := app.agents.GetBalance(context.Background(), agentID, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.CurrentCredit)
	assert.Equal(t, int64(0), bal.CashCollected)

	assertBalanced(t, app, domain.CurrencyUSD)
}
