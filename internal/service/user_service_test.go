package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/pkg/apperror"
	"github.com/ignatzorin/ex-server/internal/storage"
)

func newUserFixture(t *testing.T, names ...string) (*UserService, *fakeUserStore, *fakePictures, []*models.User) {
	t.Helper()
	users := newFakeUserStore()
	pictures := newFakePictures()
	var created []*models.User
	for _, name := range names {
		u := &models.User{Email: name + "@example.com", Username: name, PasswordHash: "x"}
		require.NoError(t, users.Create(context.Background(), u))
		created = append(created, u)
	}
	return NewUserService(users, pictures), users, pictures, created
}

func TestUserService_MeAndGetByUsername(t *testing.T) {
	svc, _, _, created := newUserFixture(t, "alice1")

	me, err := svc.Me(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "alice1", me.Username)

	_, err = svc.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)

	got, err := svc.GetByUsername(context.Background(), "alice1")
	require.NoError(t, err)
	assert.Equal(t, created[0].ID, got.ID)

	_, err = svc.GetByUsername(context.Background(), "nobody1")
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestUserService_SearchIsCappedAndNeverNil(t *testing.T) {
	names := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		names = append(names, fmt.Sprintf("member%02d", i))
	}
	svc, _, _, _ := newUserFixture(t, names...)

	found, err := svc.Search(context.Background(), "MEMBER")
	require.NoError(t, err)
	assert.Len(t, found, SearchLimit)

	none, err := svc.Search(context.Background(), "zzzzzz")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUserService_UpdateUsername(t *testing.T) {
	svc, _, _, created := newUserFixture(t, "alice1", "bobby1")

	updated, err := svc.UpdateUsername(context.Background(), created[0].ID, "alice2")
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)

	_, err = svc.UpdateUsername(context.Background(), created[0].ID, "bobby1")
	assert.ErrorIs(t, err, apperror.ErrUsernameTaken)
}

func TestUserService_UpdatePictureReplacesPrevious(t *testing.T) {
	svc, _, pictures, created := newUserFixture(t, "alice1")
	ctx := context.Background()

	first, err := svc.UpdatePicture(ctx, created[0].ID, PictureUpload{Ext: ".png", ContentType: "image/png", Body: strings.NewReader("one")})
	require.NoError(t, err)
	require.NotNil(t, first.ProfilePicture)
	assert.True(t, strings.HasSuffix(*first.ProfilePicture, ".png"))

	second, err := svc.UpdatePicture(ctx, created[0].ID, PictureUpload{Ext: "jpg", ContentType: "image/jpeg", Body: strings.NewReader("two")})
	require.NoError(t, err)
	assert.NotEqual(t, *first.ProfilePicture, *second.ProfilePicture)
	assert.True(t, strings.HasSuffix(*second.ProfilePicture, ".jpg"))

	assert.Equal(t, []string{*first.ProfilePicture}, pictures.deleted)
	assert.Equal(t, []byte("two"), pictures.files[*second.ProfilePicture])
}

func TestUserService_UpdatePictureTooLarge(t *testing.T) {
	svc, users, pictures, created := newUserFixture(t, "alice1")
	pictures.saveErr = storage.ErrTooLarge

	_, err := svc.UpdatePicture(context.Background(), created[0].ID, PictureUpload{Ext: ".png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrPictureTooLarge)
	assert.True(t, apperror.IsValidation(err))
	assert.Nil(t, users.users[created[0].ID].ProfilePicture)
}

func TestUserService_Delete(t *testing.T) {
	svc, users, pictures, created := newUserFixture(t, "alice1")
	ctx := context.Background()
	pic := "/pictures/alice.png"
	users.users[created[0].ID].ProfilePicture = &pic

	count, err := svc.Delete(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, []string{pic}, pictures.deleted)

	_, err = svc.Delete(ctx, created[0].ID)
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestUserService_ListAll(t *testing.T) {
	svc, _, _, _ := newUserFixture(t, "alice1", "bobby1")

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
