package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/redressal/internal/auth"
	"github.com/opencampus/redressal/internal/models"
)

func newTestVerificationService(dir *identityDirectory, mailer MailEnqueuer) (*AdminVerificationService, *CodeLedger) {
	resolver := NewIdentityResolver(dir, testLogger())
	ledger := NewCodeLedger(NewMemoryCodeStore(), 10*time.Minute, testLogger())
	tm := auth.NewTokenManager(testTokenSecret, time.Hour)
	svc := NewAdminVerificationService(resolver, ledger, mailer, tm, 10*time.Minute, testLogger(), testAudit())
	return svc, ledger
}

func TestAdminVerificationService_RequestCode_Success(t *testing.T) {
	admin := NewTestIdentity(models.RoleAdmin, "root", "root@campus.edu", "Password123!")
	mailer := &CapturingMailer{}
	svc, ledger := newTestVerificationService(newIdentityDirectory(admin), mailer)

	err := svc.RequestCode(context.Background(), "root")
	require.NoError(t, err)

	msg := mailer.Last()
	require.NotNil(t, msg)
	assert.Equal(t, admin.Email, msg.To)
	assert.Contains(t, msg.TextBody, "verification code")

	// The mailed code verifies against the ledger.
	code := extractCode(t, msg.TextBody)
	assert.NoError(t, ledger.Verify(context.Background(), admin.Email, code))
}

func extractCode(t *testing.T, body string) string {
	t.Helper()
	for i := 0; i+models.CodeLength <= len(body); i++ {
		candidate := body[i : i+models.CodeLength]
		allDigits := true
		for _, c := range candidate {
			if c < '0' || c > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return candidate
		}
	}
	t.Fatal("no code found in message body")
	return ""
}

func TestAdminVerificationService_RequestCode_UnknownAdmin(t *testing.T) {
	mailer := &CapturingMailer{}
	svc, _ := newTestVerificationService(newIdentityDirectory(), mailer)

	err := svc.RequestCode(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, mailer.Last())
}

func TestAdminVerificationService_RequestCode_StudentNotVisible(t *testing.T) {
	// A student owning the key must not receive admin codes.
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "Password123!")
	mailer := &CapturingMailer{}
	svc, _ := newTestVerificationService(newIdentityDirectory(student), mailer)

	err := svc.RequestCode(context.Background(), "amy")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAdminVerificationService_RequestCode_MailQueueFullStillSucceeds(t *testing.T) {
	admin := NewTestIdentity(models.RoleAdmin, "root", "root@campus.edu", "Password123!")
	mailer := &CapturingMailer{Reject: true}
	svc, _ := newTestVerificationService(newIdentityDirectory(admin), mailer)

	// Delivery is fire and forget; a dropped message cannot fail the request.
	assert.NoError(t, svc.RequestCode(context.Background(), "root"))
}

func TestAdminVerificationService_RequestCode_ReissueInvalidatesPrior(t *testing.T) {
	admin := NewTestIdentity(models.RoleAdmin, "root", "root@campus.edu", "Password123!")
	mailer := &CapturingMailer{}
	svc, ledger := newTestVerificationService(newIdentityDirectory(admin), mailer)
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "root"))
	first := extractCode(t, mailer.Last().TextBody)

	require.NoError(t, svc.RequestCode(ctx, "root"))
	second := extractCode(t, mailer.Last().TextBody)

	if first != second {
		assert.ErrorIs(t, ledger.Verify(ctx, admin.Email, first), models.ErrCodeMismatch)
	}
	assert.NoError(t, ledger.Verify(ctx, admin.Email, second))
}

func TestAdminVerificationService_VerifyCode_PassesThroughLedgerErrors(t *testing.T) {
	admin := NewTestIdentity(models.RoleAdmin, "root", "root@campus.edu", "Password123!")
	mailer := &CapturingMailer{}
	svc, ledger := newTestVerificationService(newIdentityDirectory(admin), mailer)
	ctx := context.Background()

	// No code issued yet.
	assert.ErrorIs(t, svc.VerifyCode(ctx, admin.Email, "123456"), models.ErrCodeNotFound)

	code, err := ledger.Issue(ctx, admin.Email)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	assert.ErrorIs(t, svc.VerifyCode(ctx, admin.Email, wrong), models.ErrCodeMismatch)
	assert.NoError(t, svc.VerifyCode(ctx, admin.Email, code))

	// Consumed: a second verification finds nothing.
	assert.ErrorIs(t, svc.VerifyCode(ctx, admin.Email, code), models.ErrCodeNotFound)
}

func TestAdminVerificationService_Login_Success(t *testing.T) {
	admin := NewTestIdentity(models.RoleAdmin, "root", "root@campus.edu", "Password123!")
	svc, _ := newTestVerificationService(newIdentityDirectory(admin), &CapturingMailer{})

	resp, err := svc.Login(context.Background(), "root@campus.edu", "Password123!")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleAdmin, resp.Identity.Role)
	assert.Empty(t, resp.Identity.PasswordHash)

	claims, err := auth.NewTokenManager(testTokenSecret, time.Hour).Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, admin.ID, claims.IdentityID)
}

func TestAdminVerificationService_Login_GenericFailure(t *testing.T) {
	admin := NewTestIdentity(models.RoleAdmin, "root", "root@campus.edu", "Password123!")
	svc, _ := newTestVerificationService(newIdentityDirectory(admin), &CapturingMailer{})

	_, errUnknown := svc.Login(context.Background(), "nobody", "Password123!")
	_, errWrongPw := svc.Login(context.Background(), "root", "wrong")

	assert.ErrorIs(t, errUnknown, models.ErrUnauthorized)
	assert.ErrorIs(t, errWrongPw, models.ErrUnauthorized)
}

func TestAdminVerificationService_Login_NonAdminRejected(t *testing.T) {
	student := NewTestIdentity(models.RoleStudent, "amy", "amy@campus.edu", "Password123!")
	svc, _ := newTestVerificationService(newIdentityDirectory(student), &CapturingMailer{})

	_, err := svc.Login(context.Background(), "amy", "Password123!")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
