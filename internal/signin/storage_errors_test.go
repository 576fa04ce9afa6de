package signin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/save2win/save2win-front/internal/config"
	"github.com/save2win/save2win-front/internal/cookie"
	"github.com/save2win/save2win-front/internal/storage"
	"github.com/save2win/save2win-front/internal/testutil"
)

func mockedInitiator(t *testing.T, store *testutil.MockStorage) *Initiator {
	t.Helper()
	i, err := NewInitiator(Options{
		Provider:   testProvider(t),
		Mode:       config.StateValidationStrict,
		Storage:    store,
		SigningKey: []byte(testSigningKey),
	})
	require.NoError(t, err)
	return i
}

func TestBegin_StorageFailure(t *testing.T) {
	store := &testutil.MockStorage{}
	store.On("SavePendingSignIn", mock.Anything, mock.AnythingOfType("storage.PendingSignIn")).
		Return(errors.New("redis: connection refused"))
	i := mockedInitiator(t, store)

	w := httptest.NewRecorder()
	_, _, err := i.Begin(context.Background(), w, httptest.NewRequest(http.MethodGet, "/auth/signin-url", nil))
	require.Error(t, err)
	assert.Empty(t, w.Result().Cookies(), "no pre-session cookie without a stored record")
	store.AssertExpectations(t)
}

func TestComplete_PassesStateToStorage(t *testing.T) {
	store := &testutil.MockStorage{}
	var saved storage.PendingSignIn
	store.On("SavePendingSignIn", mock.Anything, mock.AnythingOfType("storage.PendingSignIn")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(storage.PendingSignIn) }).
		Return(nil)
	i := mockedInitiator(t, store)

	w := httptest.NewRecorder()
	_, nonce, err := i.Begin(context.Background(), w, httptest.NewRequest(http.MethodGet, "/auth/signin-url", nil))
	require.NoError(t, err)
	assert.Equal(t, nonce.Value, saved.State)

	var preSession *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == cookie.PreSessionCookie {
			preSession = c
		}
	}
	require.NotNil(t, preSession)

	t.Run("storage error surfaces", func(t *testing.T) {
		store.On("ConsumePendingSignIn", mock.Anything, saved.ID, "wrong").
			Return(nil, storage.ErrStateMismatch).Once()

		r := httptest.NewRequest(http.MethodGet, "/callback", nil)
		r.AddCookie(preSession)
		err := i.Complete(context.Background(), httptest.NewRecorder(), r, "wrong")
		assert.ErrorIs(t, err, storage.ErrStateMismatch)
	})

	t.Run("matching state", func(t *testing.T) {
		store.On("ConsumePendingSignIn", mock.Anything, saved.ID, nonce.Value).
			Return(&saved, nil).Once()

		r := httptest.NewRequest(http.MethodGet, "/callback", nil)
		r.AddCookie(preSession)
		assert.NoError(t, i.Complete(context.Background(), httptest.NewRecorder(), r, nonce.Value))
	})

	store.AssertExpectations(t)
}
