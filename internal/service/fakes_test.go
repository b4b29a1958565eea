package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/ex-server/internal/mailer"
	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/repository"
	"github.com/ignatzorin/ex-server/internal/storage"
)

// fakeUserStore реализует UserStore в памяти.
type fakeUserStore struct {
	users    map[uuid.UUID]*models.User
	admins   map[uuid.UUID]bool
	adminErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[uuid.UUID]*models.User),
		admins: make(map[uuid.UUID]bool),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
		if u.Username == user.Username {
			return repository.ErrUsernameTaken
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserStore) Search(_ context.Context, term string, limit int) ([]models.User, error) {
	var out []models.User
	term = strings.ToLower(term)
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Username), term) || strings.Contains(strings.ToLower(u.Email), term) {
			out = append(out, *u)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUserStore) UpdateUsername(_ context.Context, id uuid.UUID, username string) (*models.User, error) {
	for otherID, u := range f.users {
		if otherID != id && u.Username == username {
			return nil, repository.ErrUsernameTaken
		}
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Username = username
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) UpdatePicture(_ context.Context, id uuid.UUID, picture string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.ProfilePicture = &picture
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := f.users[id]; !ok {
		return 0, nil
	}
	delete(f.users, id)
	delete(f.admins, id)
	return 1, nil
}

func (f *fakeUserStore) IsAdmin(_ context.Context, id uuid.UUID) (bool, error) {
	if f.adminErr != nil {
		return false, f.adminErr
	}
	return f.admins[id], nil
}

// fakeSessionStore реализует SessionStore в памяти.
type fakeSessionStore struct {
	sessions map[string]*models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*models.Session)}
}

func (f *fakeSessionStore) Create(_ context.Context, session *models.Session) error {
	if _, ok := f.sessions[session.RefreshToken]; ok {
		return errors.New("duplicate refresh token")
	}
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	cp := *session
	f.sessions[session.RefreshToken] = &cp
	return nil
}

func (f *fakeSessionStore) GetByToken(_ context.Context, token string) (*models.Session, error) {
	if s, ok := f.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, repository.ErrSessionNotFound
}

func (f *fakeSessionStore) DeleteByToken(_ context.Context, token string) (int64, error) {
	if _, ok := f.sessions[token]; !ok {
		return 0, nil
	}
	delete(f.sessions, token)
	return 1, nil
}

func (f *fakeSessionStore) countFor(userID uuid.UUID) int {
	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

// fakeCodeStore реализует CodeStore и применяет эффекты к fakeUserStore.
type fakeCodeStore struct {
	codes    []models.OneTimeCode
	users    *fakeUserStore
	sessions *fakeSessionStore
}

func (f *fakeCodeStore) FindActive(_ context.Context, userID uuid.UUID, now time.Time) (*models.OneTimeCode, error) {
	for _, c := range f.codes {
		if c.UserID == userID && c.ExpiresAt.After(now) {
			cp := c
			return &cp, nil
		}
	}
	return nil, repository.ErrCodeNotFound
}

func (f *fakeCodeStore) Create(_ context.Context, code *models.OneTimeCode) error {
	code.ID = uuid.New()
	code.CreatedAt = time.Now()
	f.codes = append(f.codes, *code)
	return nil
}

func (f *fakeCodeStore) consume(userID uuid.UUID, code string, now time.Time) error {
	for i, c := range f.codes {
		if c.UserID == userID && c.Code == code && c.ExpiresAt.After(now) {
			f.codes = append(f.codes[:i], f.codes[i+1:]...)
			return nil
		}
	}
	return repository.ErrCodeNotFound
}

func (f *fakeCodeStore) VerifyUser(_ context.Context, userID uuid.UUID, code string, now time.Time) error {
	if err := f.consume(userID, code, now); err != nil {
		return err
	}
	f.users.users[userID].Verified = true
	return nil
}

func (f *fakeCodeStore) ResetPassword(_ context.Context, userID uuid.UUID, code string, hashPassword func() (string, error), now time.Time) error {
	if err := f.consume(userID, code, now); err != nil {
		return err
	}
	hash, err := hashPassword()
	if err != nil {
		return err
	}
	f.users.users[userID].PasswordHash = hash
	for token, s := range f.sessions.sessions {
		if s.UserID == userID {
			delete(f.sessions.sessions, token)
		}
	}
	return nil
}

// fakePictures хранит картинки в памяти.
type fakePictures struct {
	files   map[string][]byte
	deleted []string
	saveErr error
}

func newFakePictures() *fakePictures {
	return &fakePictures{files: make(map[string][]byte)}
}

func (f *fakePictures) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	ref := "/pictures/" + name
	f.files[ref] = data
	return ref, nil
}

func (f *fakePictures) Delete(_ context.Context, ref string) error {
	f.deleted = append(f.deleted, ref)
	delete(f.files, ref)
	return nil
}

var _ PictureStorage = (*storage.LocalStorage)(nil)

type fakeAvatar struct {
	err error
}

func (f fakeAvatar) Render(name string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png:" + name), nil
}

// mockMailer подменяет отправителя писем.
type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// plainHasher ускоряет тесты, не вызывая bcrypt.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) bool { return hash == "hashed:"+password }

// countingHasher считает вызовы Hash.
type countingHasher struct {
	plainHasher
	calls int
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.calls++
	return h.plainHasher.Hash(password)
}
