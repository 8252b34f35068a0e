package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/DevanshBajpai09/product-management/internal/blob"
	"github.com/DevanshBajpai09/product-management/internal/identity"
	"github.com/DevanshBajpai09/product-management/internal/models"
	"github.com/DevanshBajpai09/product-management/internal/repo"
)

type failingBlobStore struct{}

func (failingBlobStore) Upload(ctx context.Context, path string, r io.Reader) error {
	return errors.New("bucket unavailable")
}
func (failingBlobStore) PublicURL(path string) string { return "" }

func (failingBlobStore) Remove(ctx context.Context, path string) error { return nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return db
}

func newTestService(t *testing.T) (*ProductService, *gorm.DB, string) {
	t.Helper()
	db := newTestDB(t)

	mediaDir := t.TempDir()
	blobs, err := blob.NewDiskStore(mediaDir, "http://localhost:8080")
	require.NoError(t, err)

	svc := &ProductService{
		Repo:     &repo.GormRepo{DB: db},
		Blobs:    blobs,
		Identity: identity.ContextProvider{},
	}
	return svc, db, mediaDir
}

func userCtx(userID uint) context.Context {
	return identity.WithUser(context.Background(), userID)
}

func TestCreateReadRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := userCtx(1)

	created, err := svc.Create(ctx, ProductInput{
		Name:        "Desk Lamp",
		Description: "warm light",
		Category:    "home",
		Price:       499.99,
		Rating:      4.5,
	}, nil)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, uint(1), created.UserID)
	require.False(t, created.CreatedAt.IsZero())
	require.Empty(t, created.ImagePath)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", got.Name)
	assert.Equal(t, "warm light", got.Description)
	assert.Equal(t, "home", got.Category)
	assert.Equal(t, 499.99, got.Price)
	assert.Equal(t, 4.5, got.Rating)
	assert.Empty(t, got.ImageURL)
}

func TestOperationsRequireSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ProductInput{Name: "x", Price: 1}, nil)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Get(ctx, 1)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.List(ctx)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Update(ctx, 1, ProductInput{Name: "x", Price: 1})
	require.ErrorIs(t, err, ErrUnauthenticated)

	require.ErrorIs(t, svc.Delete(ctx, 1), ErrUnauthenticated)
}

func TestCreateValidation(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := userCtx(1)

	tests := []struct {
		name string
		in   ProductInput
	}{
		{name: "empty name", in: ProductInput{Price: 10}},
		{name: "negative price", in: ProductInput{Name: "x", Price: -1}},
		{name: "rating below range", in: ProductInput{Name: "x", Price: 1, Rating: 0.5}},
		{name: "rating above range", in: ProductInput{Name: "x", Price: 1, Rating: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in, nil)
			require.ErrorIs(t, err, ErrValidation)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateWithImage(t *testing.T) {
	svc, _, mediaDir := newTestService(t)
	ctx := userCtx(7)

	created, err := svc.Create(ctx, ProductInput{Name: "Poster", Price: 15, Rating: 4},
		&ImageUpload{Filename: "poster.png", Content: strings.NewReader("png-bytes")})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(created.ImagePath, "products/7/"))
	require.True(t, strings.HasSuffix(created.ImagePath, ".png"))

	data, err := os.ReadFile(filepath.Join(mediaDir, filepath.FromSlash(created.ImagePath)))
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/media/"+created.ImagePath, got.ImageURL)
}

func TestCreateUploadFailureWritesNoRecord(t *testing.T) {
	svc, db, _ := newTestService(t)
	svc.Blobs = failingBlobStore{}
	ctx := userCtx(1)

	_, err := svc.Create(ctx, ProductInput{Name: "Poster", Price: 15},
		&ImageUpload{Filename: "poster.png", Content: strings.NewReader("png-bytes")})
	require.ErrorIs(t, err, ErrUploadFailed)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateInsertFailureRemovesUploadedBlob(t *testing.T) {
	svc, db, mediaDir := newTestService(t)
	ctx := userCtx(1)

	// With the table gone the insert fails after the upload succeeded.
	require.NoError(t, db.Migrator().DropTable(&models.Product{}))

	_, err := svc.Create(ctx, ProductInput{Name: "Poster", Price: 15},
		&ImageUpload{Filename: "poster.png", Content: strings.NewReader("png-bytes")})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUploadFailed)

	entries, err := os.ReadDir(filepath.Join(mediaDir, "products", "1"))
	if err == nil {
		require.Empty(t, entries)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	svc, db, _ := newTestService(t)

	created, err := svc.Create(userCtx(1), ProductInput{Name: "Mine", Price: 10, Rating: 3}, nil)
	require.NoError(t, err)

	other := userCtx(2)

	_, err = svc.Get(other, created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(other, created.ID, ProductInput{Name: "Stolen", Price: 1})
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(other, created.ID), ErrNotFound)

	// The record must be untouched for its owner.
	var prod models.Product
	require.NoError(t, db.First(&prod, created.ID).Error)
	require.Equal(t, "Mine", prod.Name)
	require.Equal(t, uint(1), prod.UserID)
}

func TestUpdateReplacesAllFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := userCtx(1)

	created, err := svc.Create(ctx, ProductInput{
		Name: "Old", Description: "old desc", Category: "books", Price: 10, Rating: 3,
	}, nil)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, ProductInput{
		Name: "New", Description: "", Category: "home", Price: 20, Rating: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Empty(t, updated.Description)
	assert.Equal(t, "home", updated.Category)
	assert.Equal(t, float64(20), updated.Price)
	assert.Equal(t, float64(5), updated.Rating)
	assert.Equal(t, created.UserID, updated.UserID)
}

func TestUpdateMissingProduct(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(userCtx(1), 42, ProductInput{Name: "x", Price: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirstScopedToOwner(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(userCtx(1), ProductInput{Name: "first", Price: 1}, nil)
	require.NoError(t, err)
	_, err = svc.Create(userCtx(1), ProductInput{Name: "second", Price: 2}, nil)
	require.NoError(t, err)
	_, err = svc.Create(userCtx(2), ProductInput{Name: "theirs", Price: 3}, nil)
	require.NoError(t, err)

	items, err := svc.List(userCtx(1))
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, p := range items {
		require.Equal(t, uint(1), p.UserID)
	}
	require.False(t, items[0].CreatedAt.Before(items[1].CreatedAt))
}
