package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/redressal/internal/models"
)

func newTestLedger(ttl time.Duration) (*CodeLedger, *MemoryCodeStore) {
	store := NewMemoryCodeStore()
	return NewCodeLedger(store, ttl, testLogger()), store
}

func TestCodeLedger_Issue_Format(t *testing.T) {
	ledger, _ := newTestLedger(10 * time.Minute)

	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 20; i++ {
		code, err := ledger.Issue(context.Background(), "admin@campus.edu")
		require.NoError(t, err)
		assert.Regexp(t, pattern, code, "codes are fixed-width digits, leading zeros included")
	}
}

func TestCodeLedger_Issue_ReplacesPriorCode(t *testing.T) {
	ledger, _ := newTestLedger(10 * time.Minute)
	ctx := context.Background()

	first, err := ledger.Issue(ctx, "admin@campus.edu")
	require.NoError(t, err)
	second, err := ledger.Issue(ctx, "admin@campus.edu")
	require.NoError(t, err)

	// Only the latest code verifies. The first now mismatches unless the
	// draw collided, in which case it verifies as the current code.
	if first != second {
		assert.ErrorIs(t, ledger.Verify(ctx, "admin@campus.edu", first), models.ErrCodeMismatch)
	}
	assert.NoError(t, ledger.Verify(ctx, "admin@campus.edu", second))
}

func TestCodeLedger_Verify_SingleUse(t *testing.T) {
	ledger, _ := newTestLedger(10 * time.Minute)
	ctx := context.Background()

	code, err := ledger.Issue(ctx, "admin@campus.edu")
	require.NoError(t, err)

	require.NoError(t, ledger.Verify(ctx, "admin@campus.edu", code))
	assert.ErrorIs(t, ledger.Verify(ctx, "admin@campus.edu", code), models.ErrCodeNotFound)
}

func TestCodeLedger_Verify_NoCodeIssued(t *testing.T) {
	ledger, _ := newTestLedger(10 * time.Minute)

	err := ledger.Verify(context.Background(), "nobody@campus.edu", "123456")
	assert.ErrorIs(t, err, models.ErrCodeNotFound)
}

func TestCodeLedger_Verify_ExpiredBeforeMismatch(t *testing.T) {
	// Negative TTL: the code is born expired. Expiry must be reported even
	// when the submitted code would not have matched anyway.
	ledger, store := newTestLedger(-1 * time.Minute)
	ctx := context.Background()

	_, err := ledger.Issue(ctx, "admin@campus.edu")
	require.NoError(t, err)

	err = ledger.Verify(ctx, "admin@campus.edu", "000000")
	assert.ErrorIs(t, err, models.ErrCodeExpired)

	// The expired record was evicted, so the next attempt finds nothing.
	_, err = store.GetLatestByEmail(ctx, "admin@campus.edu")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, ledger.Verify(ctx, "admin@campus.edu", "000000"), models.ErrCodeNotFound)
}

func TestCodeLedger_Verify_Mismatch(t *testing.T) {
	ledger, _ := newTestLedger(10 * time.Minute)
	ctx := context.Background()

	code, err := ledger.Issue(ctx, "admin@campus.edu")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	assert.ErrorIs(t, ledger.Verify(ctx, "admin@campus.edu", wrong), models.ErrCodeMismatch)

	// A mismatch does not consume the code.
	assert.NoError(t, ledger.Verify(ctx, "admin@campus.edu", code))
}

func TestCodeLedger_Verify_NormalizesEmail(t *testing.T) {
	ledger, _ := newTestLedger(10 * time.Minute)
	ctx := context.Background()

	code, err := ledger.Issue(ctx, "Admin@Campus.EDU")
	require.NoError(t, err)

	assert.NoError(t, ledger.Verify(ctx, " admin@campus.edu ", code))
}

func TestCodeLedger_Sweep(t *testing.T) {
	ledger, store := newTestLedger(-1 * time.Minute)
	ctx := context.Background()

	_, err := ledger.Issue(ctx, "a@campus.edu")
	require.NoError(t, err)
	_, err = ledger.Issue(ctx, "b@campus.edu")
	require.NoError(t, err)

	removed, err := ledger.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = store.GetLatestByEmail(ctx, "a@campus.edu")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
