package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/opencampus/redressal/pkg/auth"
	pkglogger "github.com/opencampus/redressal/pkg/logger"

	"github.com/opencampus/redressal/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAudit() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

// MockIdentityStore is a function-field fake for IdentityStore. Unset fields
// return ErrNotFound / zero values so tests only wire what they assert.
type MockIdentityStore struct {
	CreateFunc         func(ctx context.Context, ident *models.Identity) (*models.Identity, error)
	GetByIDFunc        func(ctx context.Context, role models.Role, id string) (*models.Identity, error)
	GetByUsernameFunc  func(ctx context.Context, role models.Role, username string) (*models.Identity, error)
	GetByEmailFunc     func(ctx context.Context, role models.Role, email string) (*models.Identity, error)
	ListFunc           func(ctx context.Context, role models.Role, limit, offset int) ([]*models.Identity, error)
	UpdateProfileFunc  func(ctx context.Context, role models.Role, id string, ident *models.Identity) (*models.Identity, error)
	UpdatePasswordFunc func(ctx context.Context, role models.Role, id, passwordHash string) error
	DeleteFunc         func(ctx context.Context, role models.Role, id string) error
	UsernameExistsFunc func(ctx context.Context, role models.Role, username string) (bool, error)
	EmailExistsFunc    func(ctx context.Context, email string) (bool, error)
}

func (m *MockIdentityStore) Create(ctx context.Context, ident *models.Identity) (*models.Identity, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ident)
	}
	ident.ID = uuid.New().String()
	now := time.Now()
	ident.CreatedAt = now
	ident.UpdatedAt = now
	return ident, nil
}

func (m *MockIdentityStore) GetByID(ctx context.Context, role models.Role, id string) (*models.Identity, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, role, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockIdentityStore) GetByUsername(ctx context.Context, role models.Role, username string) (*models.Identity, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, role, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockIdentityStore) GetByEmail(ctx context.Context, role models.Role, email string) (*models.Identity, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, role, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockIdentityStore) List(ctx context.Context, role models.Role, limit, offset int) ([]*models.Identity, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, role, limit, offset)
	}
	return []*models.Identity{}, nil
}

func (m *MockIdentityStore) UpdateProfile(ctx context.Context, role models.Role, id string, ident *models.Identity) (*models.Identity, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, role, id, ident)
	}
	return ident, nil
}

func (m *MockIdentityStore) UpdatePassword(ctx context.Context, role models.Role, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, role, id, passwordHash)
	}
	return nil
}

func (m *MockIdentityStore) Delete(ctx context.Context, role models.Role, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, role, id)
	}
	return nil
}

func (m *MockIdentityStore) UsernameExists(ctx context.Context, role models.Role, username string) (bool, error) {
	if m.UsernameExistsFunc != nil {
		return m.UsernameExistsFunc(ctx, role, username)
	}
	return false, nil
}

func (m *MockIdentityStore) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.EmailExistsFunc != nil {
		return m.EmailExistsFunc(ctx, email)
	}
	return false, nil
}

// MemoryCodeStore is an in-memory VerificationCodeStore keyed by email,
// mirroring the replace-not-append semantics of the real table.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]*models.VerificationCode
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[string]*models.VerificationCode)}
}

func (s *MemoryCodeStore) Replace(ctx context.Context, email, code string, expiresAt time.Time) (*models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := &models.VerificationCode{
		ID:        uuid.New().String(),
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	s.codes[email] = record
	return record, nil
}

func (s *MemoryCodeStore) GetLatestByEmail(ctx context.Context, email string) (*models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.codes[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryCodeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for email, record := range s.codes {
		if record.ID == id {
			delete(s.codes, email)
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *MemoryCodeStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	now := time.Now()
	for email, record := range s.codes {
		if now.After(record.ExpiresAt) {
			delete(s.codes, email)
			removed++
		}
	}
	return removed, nil
}

// MockComplaintStore is a function-field fake for ComplaintStore.
type MockComplaintStore struct {
	CreateFunc       func(ctx context.Context, c *models.Complaint) (*models.Complaint, error)
	GetByIDFunc      func(ctx context.Context, id string) (*models.Complaint, error)
	ListFunc         func(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error)
	AssignFunc       func(ctx context.Context, id, facultyID string) (*models.Complaint, error)
	UpdateStatusFunc func(ctx context.Context, id, status string, resolution *string) (*models.Complaint, error)
	DeleteFunc       func(ctx context.Context, id string) error
}

func (m *MockComplaintStore) Create(ctx context.Context, c *models.Complaint) (*models.Complaint, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	c.ID = uuid.New().String()
	if c.Status == "" {
		c.Status = models.ComplaintOpen
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (m *MockComplaintStore) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintStore) List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintStore) Assign(ctx context.Context, id, facultyID string) (*models.Complaint, error) {
	if m.AssignFunc != nil {
		return m.AssignFunc(ctx, id, facultyID)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintStore) UpdateStatus(ctx context.Context, id, status string, resolution *string) (*models.Complaint, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, resolution)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockEmailSender records sent messages and can be told to fail a number of
// times before succeeding.
type MockEmailSender struct {
	mu        sync.Mutex
	Sent      []EmailMessage
	FailTimes int
	SendErr   error
}

func (m *MockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailTimes > 0 {
		m.FailTimes--
		return m.SendErr
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MockEmailSender) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// CapturingMailer implements MailEnqueuer synchronously for service tests.
type CapturingMailer struct {
	mu       sync.Mutex
	Messages []EmailMessage
	Reject   bool
}

func (m *CapturingMailer) Enqueue(msg EmailMessage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Reject {
		return false
	}
	m.Messages = append(m.Messages, msg)
	return true
}

func (m *CapturingMailer) Last() *EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Messages) == 0 {
		return nil
	}
	msg := m.Messages[len(m.Messages)-1]
	return &msg
}

// NewTestIdentity builds an identity with a real bcrypt hash of password.
func NewTestIdentity(role models.Role, username, email, password string) *models.Identity {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	now := time.Now()
	return &models.Identity{
		ID:           uuid.New().String(),
		Role:         role,
		Name:         "Test " + username,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// identityDirectory is a map-backed IdentityStore for resolver tests: each
// variant holds its own identities, keyed by id, username and email.
type identityDirectory struct {
	MockIdentityStore
	mu       sync.Mutex
	byRole   map[models.Role][]*models.Identity
	emailSet map[string]bool
}

func newIdentityDirectory(idents ...*models.Identity) *identityDirectory {
	d := &identityDirectory{
		byRole:   make(map[models.Role][]*models.Identity),
		emailSet: make(map[string]bool),
	}
	for _, ident := range idents {
		d.add(ident)
	}
	return d
}

func (d *identityDirectory) add(ident *models.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byRole[ident.Role] = append(d.byRole[ident.Role], ident)
	d.emailSet[ident.Email] = true
}

func (d *identityDirectory) find(role models.Role, match func(*models.Identity) bool) (*models.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ident := range d.byRole[role] {
		if match(ident) {
			copied := *ident
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (d *identityDirectory) GetByID(ctx context.Context, role models.Role, id string) (*models.Identity, error) {
	return d.find(role, func(i *models.Identity) bool { return i.ID == id })
}

func (d *identityDirectory) GetByUsername(ctx context.Context, role models.Role, username string) (*models.Identity, error) {
	return d.find(role, func(i *models.Identity) bool { return i.Username == username })
}

func (d *identityDirectory) GetByEmail(ctx context.Context, role models.Role, email string) (*models.Identity, error) {
	return d.find(role, func(i *models.Identity) bool { return i.Email == email })
}

func (d *identityDirectory) UsernameExists(ctx context.Context, role models.Role, username string) (bool, error) {
	_, err := d.GetByUsername(ctx, role, username)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (d *identityDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.emailSet[email], nil
}

func (d *identityDirectory) Create(ctx context.Context, ident *models.Identity) (*models.Identity, error) {
	ident.ID = uuid.New().String()
	now := time.Now()
	ident.CreatedAt = now
	ident.UpdatedAt = now
	d.add(ident)
	copied := *ident
	return &copied, nil
}
