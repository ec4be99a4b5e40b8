package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/internal/infrastructure/memory"
	"github.com/oksasatya/tourhub-api/pkg/apperror"
	"github.com/oksasatya/tourhub-api/pkg/helpers"
	"github.com/oksasatya/tourhub-api/pkg/validation"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMail struct {
	to       string
	template string
	data     map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[string]error
}

func (n *recordingNotifier) Send(_ context.Context, to, template string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fail[template]; err != nil {
		return err
	}
	n.sent = append(n.sent, sentMail{to: to, template: template, data: data})
	return nil
}

func (n *recordingNotifier) last(template string) (sentMail, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].template == template {
			return n.sent[i], true
		}
	}
	return sentMail{}, false
}

type authFixture struct {
	svc      *AuthService
	clock    *clock
	users    *memory.UserRepository
	notifier *recordingNotifier
}

func testLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	c := &clock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	tokens := helpers.NewJWTManager("test-secret", 24*time.Hour, 10*time.Minute)
	tokens.Now = c.Now
	users := memory.NewUserRepository()
	n := &recordingNotifier{fail: map[string]error{}}

	svc := NewAuthService(users, tokens, helpers.NewPasswordHasher(bcrypt.MinCost, 2), n,
		validation.New(), testLogger(), "http://localhost:8080/api/v1/users/resetPassword")
	svc.Now = c.Now
	return &authFixture{svc: svc, clock: c, users: users, notifier: n}
}

func (f *authFixture) signup(t *testing.T, email string) *AuthResult {
	t.Helper()
	res, err := f.svc.Signup(context.Background(), SignupInput{
		Name: "Leo Gillespie", Email: email, Password: "pass1234", PasswordConfirm: "pass1234",
	})
	require.NoError(t, err)
	return res
}

func TestSignupNeverExposesHash(t *testing.T) {
	f := newAuthFixture(t)
	res := f.signup(t, "Leo@Example.com")

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, entity.RoleUser, res.User.Role)
	assert.Equal(t, "leo@example.com", res.User.Email)
	assert.True(t, res.User.Active)
	assert.Nil(t, res.User.PasswordChangedAt)

	b, err := json.Marshal(res.User)
	require.NoError(t, err)
	assert.NotContains(t, string(b), res.User.PasswordHash)
	assert.NotContains(t, strings.ToLower(string(b)), "hash")

	_, ok := f.notifier.last(TemplateWelcome)
	assert.True(t, ok)
}

func TestSignupValidation(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Signup(context.Background(), SignupInput{
		Name: "Leo", Email: "leo@example.com", Password: "pass1234", PasswordConfirm: "pass9999",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.Signup(context.Background(), SignupInput{
		Name: "Leo", Email: "leo@example.com", Password: "short", PasswordConfirm: "short",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	f.signup(t, "leo@example.com")
	_, err = f.svc.Signup(context.Background(), SignupInput{
		Name: "Leo", Email: "LEO@example.com", Password: "pass1234", PasswordConfirm: "pass1234",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSignupSurvivesWelcomeFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.notifier.fail[TemplateWelcome] = errors.New("smtp down")
	res := f.signup(t, "leo@example.com")
	assert.NotEmpty(t, res.Token)
}

func TestLoginIsUndifferentiated(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "leo@example.com")
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "leo@example.com", "pass1234")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, wrongPwd := f.svc.Login(ctx, "leo@example.com", "wrong-pass")
	_, unknown := f.svc.Login(ctx, "nobody@example.com", "pass1234")
	require.ErrorIs(t, wrongPwd, apperror.ErrInvalidCredentials)
	require.ErrorIs(t, unknown, apperror.ErrInvalidCredentials)
	assert.Equal(t, wrongPwd.Error(), unknown.Error())

	_, err = f.svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// lateCancel passes its first Err check and is cancelled from then on, so
// the user lookup succeeds while the hashing pool refuses.
type lateCancel struct {
	context.Context
	checks atomic.Int32
}

func (c *lateCancel) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (c *lateCancel) Err() error {
	if c.checks.Add(1) == 1 {
		return nil
	}
	return context.Canceled
}

func TestLoginRetriesDecoyHashAfterCancellation(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "leo@example.com")

	_, err := f.svc.Login(&lateCancel{Context: context.Background()}, "ghost@example.com", "whatever1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.svc.dummyHash)

	_, err = f.svc.Login(context.Background(), "ghost@example.com", "whatever1")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	assert.NotEmpty(t, f.svc.dummyHash)
}

func TestAuthenticateTokenLifetime(t *testing.T) {
	f := newAuthFixture(t)
	res := f.signup(t, "leo@example.com")
	ctx := context.Background()

	u, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, u.ID)

	f.clock.Advance(24*time.Hour + time.Second)
	_, err = f.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = f.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestPasswordChangeInvalidatesOlderTokens(t *testing.T) {
	f := newAuthFixture(t)
	res := f.signup(t, "leo@example.com")
	ctx := context.Background()

	f.clock.Advance(10 * time.Minute)
	updated, err := f.svc.UpdatePassword(ctx, res.User, UpdatePasswordInput{
		PasswordCurrent: "pass1234",
		PasswordInput:   PasswordInput{Password: "newpass123", PasswordConfirm: "newpass123"},
	})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = f.svc.Authenticate(ctx, updated.Token)
	assert.NoError(t, err)

	_, err = f.svc.Login(ctx, "leo@example.com", "newpass123")
	assert.NoError(t, err)
}

func TestPasswordChangeRejectsTokensFromTheSameSecond(t *testing.T) {
	for name, gap := range map[string]time.Duration{
		"one and a half seconds": 1500 * time.Millisecond,
		"two hundred millis":     200 * time.Millisecond,
	} {
		t.Run(name, func(t *testing.T) {
			f := newAuthFixture(t)
			res := f.signup(t, "leo@example.com")
			ctx := context.Background()

			f.clock.Advance(gap)
			updated, err := f.svc.UpdatePassword(ctx, res.User, UpdatePasswordInput{
				PasswordCurrent: "pass1234",
				PasswordInput:   PasswordInput{Password: "newpass123", PasswordConfirm: "newpass123"},
			})
			require.NoError(t, err)

			_, err = f.svc.Authenticate(ctx, res.Token)
			assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

			f.clock.Advance(time.Hour)
			u, err := f.svc.Authenticate(ctx, res.Token)
			assert.Nil(t, u)
			assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

			_, err = f.svc.Authenticate(ctx, updated.Token)
			assert.NoError(t, err)
		})
	}
}

func TestAdminPatchCannotMovePasswordChangedAt(t *testing.T) {
	f := newAuthFixture(t)
	res := f.signup(t, "leo@example.com")
	ctx := context.Background()
	users := NewResource(UserDescriptor(), f.users, validation.New(), testLogger())

	f.clock.Advance(time.Minute)
	_, err := f.svc.UpdatePassword(ctx, res.User, UpdatePasswordInput{
		PasswordCurrent: "pass1234",
		PasswordInput:   PasswordInput{Password: "newpass123", PasswordConfirm: "newpass123"},
	})
	require.NoError(t, err)
	stored, err := f.users.Get(ctx, res.User.ID)
	require.NoError(t, err)
	changedAt := *stored.PasswordChangedAt

	for _, value := range []any{nil, "2099-01-01T00:00:00Z"} {
		u, err := users.UpdateOne(ctx, res.User.ID, map[string]any{"name": "Leo G", "passwordChangedAt": value})
		require.NoError(t, err)
		assert.Equal(t, "Leo G", u.Name)
		require.NotNil(t, u.PasswordChangedAt)
		assert.True(t, changedAt.Equal(*u.PasswordChangedAt))
	}

	_, err = f.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestUpdatePasswordChecksCurrent(t *testing.T) {
	f := newAuthFixture(t)
	res := f.signup(t, "leo@example.com")
	_, err := f.svc.UpdatePassword(context.Background(), res.User, UpdatePasswordInput{
		PasswordCurrent: "not-it",
		PasswordInput:   PasswordInput{Password: "newpass123", PasswordConfirm: "newpass123"},
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func resetTicketFrom(t *testing.T, n *recordingNotifier) string {
	t.Helper()
	mail, ok := n.last(TemplatePasswordReset)
	require.True(t, ok)
	url, _ := mail.data["reset_url"].(string)
	return url[strings.LastIndex(url, "/")+1:]
}

func TestResetTicketWorksOnce(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "leo@example.com")
	ctx := context.Background()

	require.NoError(t, f.svc.ForgotPassword(ctx, "leo@example.com"))
	plain := resetTicketFrom(t, f.notifier)

	stored, err := f.users.GetByEmail(ctx, "leo@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordResetTokenHash)
	assert.NotEqual(t, plain, *stored.PasswordResetTokenHash)

	in := PasswordInput{Password: "resetpass1", PasswordConfirm: "resetpass1"}
	res, err := f.svc.ResetPassword(ctx, plain, in)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = f.svc.ResetPassword(ctx, plain, in)
	assert.ErrorIs(t, err, apperror.ErrInvalidOrExpiredToken)

	_, err = f.svc.Login(ctx, "leo@example.com", "resetpass1")
	assert.NoError(t, err)
}

func TestResetTicketExpires(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "leo@example.com")
	ctx := context.Background()

	require.NoError(t, f.svc.ForgotPassword(ctx, "leo@example.com"))
	plain := resetTicketFrom(t, f.notifier)

	f.clock.Advance(11 * time.Minute)
	_, err := f.svc.ResetPassword(ctx, plain, PasswordInput{Password: "resetpass1", PasswordConfirm: "resetpass1"})
	assert.ErrorIs(t, err, apperror.ErrInvalidOrExpiredToken)
}

func TestForgotPasswordRollsBackOnDeliveryFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "leo@example.com")
	f.notifier.fail[TemplatePasswordReset] = errors.New("mail provider unavailable")
	ctx := context.Background()

	err := f.svc.ForgotPassword(ctx, "leo@example.com")
	require.Error(t, err)
	assert.False(t, apperror.IsOperational(err))

	stored, err := f.users.GetByEmail(ctx, "leo@example.com")
	require.NoError(t, err)
	assert.Nil(t, stored.PasswordResetTokenHash)
	assert.Nil(t, stored.PasswordResetExpiresAt)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@example.com"))
	_, sent := f.notifier.last(TemplatePasswordReset)
	assert.False(t, sent)
}

func TestAuthorize(t *testing.T) {
	f := newAuthFixture(t)
	user := &entity.User{Role: entity.RoleUser}
	admin := &entity.User{Role: entity.RoleAdmin}

	assert.ErrorIs(t, f.svc.Authorize(user, entity.RoleAdmin), apperror.ErrForbidden)
	assert.NoError(t, f.svc.Authorize(admin, entity.RoleAdmin))
	assert.ErrorIs(t, f.svc.Authorize(nil, entity.RoleAdmin), apperror.ErrForbidden)
}

func TestDeleteMeDeactivates(t *testing.T) {
	f := newAuthFixture(t)
	res := f.signup(t, "leo@example.com")
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.DeleteMe(ctx, res.User, "wrong"), apperror.ErrInvalidCredentials)
	require.NoError(t, f.svc.DeleteMe(ctx, res.User, "pass1234"))

	_, err := f.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, err = f.svc.Login(ctx, "leo@example.com", "pass1234")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	stored, err := f.users.Get(ctx, res.User.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	res := f.signup(t, "leo@example.com")
	name, email := "Leo G", "LEO.G@example.com"

	u, err := f.svc.UpdateProfile(context.Background(), res.User, ProfileInput{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Leo G", u.Name)
	assert.Equal(t, "leo.g@example.com", u.Email)

	bad := "not-an-email"
	_, err = f.svc.UpdateProfile(context.Background(), res.User, ProfileInput{Email: &bad})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestDeactivate(t *testing.T) {
	f := newAuthFixture(t)
	res := f.signup(t, "leo@example.com")
	ctx := context.Background()

	require.NoError(t, f.svc.Deactivate(ctx, res.User.ID))
	assert.ErrorIs(t, f.svc.Deactivate(ctx, res.User.ID), apperror.ErrNotFound)
	assert.ErrorIs(t, f.svc.Deactivate(ctx, "missing"), apperror.ErrNotFound)
}
