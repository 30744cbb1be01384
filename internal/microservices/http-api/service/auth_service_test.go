package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"yamdb/internal/config"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMailer mocks the mail.Mailer interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, subject, body, from string, to []string) error {
	args := m.Called(ctx, subject, body, from, to)
	return args.Error(0)
}

var codePattern = regexp.MustCompile(`confirmation code: (\w+)`)

// lastCode extracts the code from the most recent mail sent through m.
func (m *MockMailer) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.Calls)
	body := m.Calls[len(m.Calls)-1].Arguments.String(2)
	match := codePattern.FindStringSubmatch(body)
	require.Len(t, match, 2, "mail body %q carries no code", body)
	return match[1]
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      strings.Repeat("s", 32),
		AccessTokenTTL: time.Hour,
		MailFrom:       "noreply@yamdb.local",
	}
}

func newAuthFixture(t *testing.T) (AuthService, *MockMailer, repository.UserRepository) {
	t.Helper()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	mailer := new(MockMailer)
	return NewAuthService(users, mailer, testConfig(), testutil.Logger()), mailer, users
}

func TestSignUpAndObtainToken(t *testing.T) {
	svc, mailer, _ := newAuthFixture(t)
	ctx := context.Background()
	mailer.On("Send", mock.Anything, confirmationSubject, mock.Anything, "noreply@yamdb.local", []string{"alice@example.com"}).Return(nil)

	user, err := svc.SignUp(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)

	code := mailer.lastCode(t)
	token, err := svc.ObtainToken(ctx, "alice", code)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)

	authenticated, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authenticated.ID)
}

func TestObtainTokenCodeIsSingleUse(t *testing.T) {
	svc, mailer, _ := newAuthFixture(t)
	ctx := context.Background()
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.SignUp(ctx, "bob", "bob@example.com")
	require.NoError(t, err)
	code := mailer.lastCode(t)

	_, err = svc.ObtainToken(ctx, "bob", code)
	require.NoError(t, err)

	_, err = svc.ObtainToken(ctx, "bob", code)
	assert.ErrorIs(t, err, ErrInvalidConfirmationCode)
}

func TestRepeatedSignUpRegeneratesCode(t *testing.T) {
	svc, mailer, _ := newAuthFixture(t)
	ctx := context.Background()
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	first, err := svc.SignUp(ctx, "carol", "carol@example.com")
	require.NoError(t, err)
	oldCode := mailer.lastCode(t)

	second, err := svc.SignUp(ctx, "carol", "carol@example.com")
	require.NoError(t, err)
	newCode := mailer.lastCode(t)

	assert.Equal(t, first.ID, second.ID)
	mailer.AssertNumberOfCalls(t, "Send", 2)

	if oldCode != newCode {
		_, err = svc.ObtainToken(ctx, "carol", oldCode)
		assert.ErrorIs(t, err, ErrInvalidConfirmationCode)
	}
	_, err = svc.ObtainToken(ctx, "carol", newCode)
	assert.NoError(t, err)
}

func TestSignUpConflicts(t *testing.T) {
	svc, mailer, _ := newAuthFixture(t)
	ctx := context.Background()
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.SignUp(ctx, "dave", "dave@example.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		email    string
		field    string
	}{
		{"username taken with other email", "dave", "other@example.com", "username"},
		{"email taken with other username", "other", "dave@example.com", "email"},
		{"reserved username", "me", "me@example.com", "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tt.username, tt.email)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestSignUpMailFailureKeepsCodeForRetry(t *testing.T) {
	svc, mailer, users := newAuthFixture(t)
	ctx := context.Background()
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.SignUp(ctx, "erin", "erin@example.com")
	assert.ErrorIs(t, err, ErrMailDelivery)

	stored, err := users.FindByUsername(ctx, "erin")
	require.NoError(t, err)
	assert.NotNil(t, stored.ConfirmationCode)

	_, err = svc.SignUp(ctx, "erin", "erin@example.com")
	require.NoError(t, err)
}

func TestObtainTokenFailures(t *testing.T) {
	svc, mailer, _ := newAuthFixture(t)
	ctx := context.Background()
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.SignUp(ctx, "frank", "frank@example.com")
	require.NoError(t, err)

	token, err := svc.ObtainToken(ctx, "frank", "wrong123")
	assert.ErrorIs(t, err, ErrInvalidConfirmationCode)
	assert.Empty(t, token)

	_, err = svc.ObtainToken(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateTokenRejectsForeignTokens(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte(testConfig().JWTSecret))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1"})
	signed, err = other.SignedString([]byte(strings.Repeat("x", 32)))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	svc, mailer, users := newAuthFixture(t)
	ctx := context.Background()
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.SignUp(ctx, "gina", "gina@example.com")
	require.NoError(t, err)
	token, err := svc.ObtainToken(ctx, "gina", mailer.lastCode(t))
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, "gina"))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
