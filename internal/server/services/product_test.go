package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/listings/internal/server/auth"
	"github.com/dmitrijs2005/listings/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anonymous = auth.Identity{}

func TestCreateProduct(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	us, ps := newServices(t, m)
	ctx := context.Background()
	alice := register(t, us, "alice@example.com")

	t.Run("anonymous", func(t *testing.T) {
		_, err := ps.Create(ctx, anonymous, validInput())
		requireAppErr(t, err, http.StatusUnauthorized, "Not authenticated.")
	})

	t.Run("invalid", func(t *testing.T) {
		in := validInput()
		in.Title = "abc"
		in.Description = ""
		_, err := ps.Create(ctx, alice, in)
		e := requireAppErr(t, err, http.StatusUnprocessableEntity, "Invalid title.")
		assert.Len(t, e.Data, 2)

		n, err := m.Products().Count(ctx, "")
		require.NoError(t, err)
		assert.Zero(t, n, "no product is written")
		u, err := m.Users().GetByID(ctx, alice.UserID)
		require.NoError(t, err)
		assert.Empty(t, u.ProductIDs)
	})

	t.Run("session user gone", func(t *testing.T) {
		_, err := ps.Create(ctx, auth.Identity{UserID: "ghost"}, validInput())
		requireAppErr(t, err, http.StatusUnauthorized, "No user found.")
	})

	t.Run("success links product to user", func(t *testing.T) {
		p, err := ps.Create(ctx, alice, validInput())
		require.NoError(t, err)
		assert.Equal(t, alice.UserID, p.CreatorID)
		assert.Equal(t, p.CreatedAt, p.UpdatedAt)

		u, err := m.Users().GetByID(ctx, alice.UserID)
		require.NoError(t, err)
		assert.Equal(t, []string{p.ID}, u.ProductIDs)
	})
}

func TestUpdateProduct(t *testing.T) {
	frozen := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	us, ps := newServices(t, nil)
	ps.WithClock(func() time.Time { return frozen })
	ctx := context.Background()

	alice := register(t, us, "alice@example.com")
	bob := register(t, us, "bob@example.com")

	p, err := ps.Create(ctx, alice, validInput())
	require.NoError(t, err)

	update := func(images []string) UpdateProductInput {
		return UpdateProductInput{ID: p.ID, ProductInput: ProductInput{
			Title: "Blue Chair", Description: "Painted oak", ProductType: "seating", ImageURLs: images,
		}}
	}

	t.Run("anonymous", func(t *testing.T) {
		_, err := ps.Update(ctx, anonymous, update(nil))
		requireAppErr(t, err, http.StatusUnauthorized, "Not authenticated.")
	})

	t.Run("invalid", func(t *testing.T) {
		in := update(nil)
		in.ProductType = ""
		_, err := ps.Update(ctx, alice, in)
		e := requireAppErr(t, err, http.StatusUnprocessableEntity, "Invalid product data.")
		require.Len(t, e.Data, 1)
		assert.Equal(t, "Invalid productType.", e.Data[0].Message)

		stored, err := ps.Get(ctx, alice, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Title, stored.Title, "stored product is unchanged")
		assert.Equal(t, p.UpdatedAt, stored.UpdatedAt)
	})

	t.Run("missing", func(t *testing.T) {
		in := update(nil)
		in.ID = "ghost"
		_, err := ps.Update(ctx, alice, in)
		requireAppErr(t, err, http.StatusNotFound, "No product found")
	})

	t.Run("other user", func(t *testing.T) {
		_, err := ps.Update(ctx, bob, update(nil))
		requireAppErr(t, err, http.StatusForbidden, "You are not authorized to modify this product.")

		stored, err := ps.Get(ctx, alice, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Title, stored.Title)
	})

	t.Run("owner, images kept when absent", func(t *testing.T) {
		got, err := ps.Update(ctx, alice, update(nil))
		require.NoError(t, err)
		assert.Equal(t, "Blue Chair", got.Title)
		assert.Equal(t, "seating", got.ProductType)
		assert.Equal(t, []string{"https://img/1.png"}, got.ImageURLs)
		assert.True(t, got.UpdatedAt.After(p.UpdatedAt), "updatedAt must advance even with a frozen clock")
		assert.Equal(t, p.CreatedAt, got.CreatedAt)
	})

	t.Run("undefined sentinel keeps images", func(t *testing.T) {
		got, err := ps.Update(ctx, alice, update([]string{"undefined"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"https://img/1.png"}, got.ImageURLs)
	})

	t.Run("images replaced", func(t *testing.T) {
		before, err := ps.Get(ctx, alice, p.ID)
		require.NoError(t, err)

		got, err := ps.Update(ctx, alice, update([]string{"https://img/2.png"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"https://img/2.png"}, got.ImageURLs)
		assert.True(t, got.UpdatedAt.After(before.UpdatedAt))
	})
}

func TestDeleteProduct(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	us, ps := newServices(t, m)
	ctx := context.Background()

	alice := register(t, us, "alice@example.com")
	bob := register(t, us, "bob@example.com")

	p1, err := ps.Create(ctx, alice, validInput())
	require.NoError(t, err)
	p2, err := ps.Create(ctx, alice, validInput())
	require.NoError(t, err)

	_, err = ps.Delete(ctx, anonymous, p1.ID)
	requireAppErr(t, err, http.StatusUnauthorized, "Not authenticated.")

	_, err = ps.Delete(ctx, alice, "ghost")
	requireAppErr(t, err, http.StatusNotFound, "No product with that ID found.")

	_, err = ps.Delete(ctx, bob, p1.ID)
	requireAppErr(t, err, http.StatusForbidden, "You are not authorized to delete this product.")

	deleted, err := ps.Delete(ctx, alice, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, deleted)

	_, err = m.Products().GetByID(ctx, p1.ID)
	assert.Error(t, err)

	u, _ := m.Users().GetByID(ctx, alice.UserID)
	assert.Equal(t, []string{p2.ID}, u.ProductIDs)

	dropped, err := ps.Cleanup(ctx, alice, []string{p2.ID})
	require.NoError(t, err)
	assert.Empty(t, dropped, "nothing left to reconcile after a delete")
}

func TestDeleteProduct_StoreFailureMapsTo404(t *testing.T) {
	m := &fakeManager{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}
	us, ps := newServices(t, m)
	ctx := context.Background()

	alice := register(t, us, "alice@example.com")
	p, err := ps.Create(ctx, alice, validInput())
	require.NoError(t, err)

	m.products = &failingProducts{Repository: m.MemoryRepositoryManager.Products(), deleteErr: errors.New("write conflict")}

	_, err = ps.Delete(ctx, alice, p.ID)
	requireAppErr(t, err, http.StatusNotFound, "Failed to delete product.")
}

func TestGetProduct(t *testing.T) {
	us, ps := newServices(t, nil)
	ctx := context.Background()
	alice := register(t, us, "alice@example.com")

	p, err := ps.Create(ctx, alice, validInput())
	require.NoError(t, err)

	_, err = ps.Get(ctx, anonymous, p.ID)
	requireAppErr(t, err, http.StatusUnauthorized, "Not Authenticated.")

	_, err = ps.Get(ctx, alice, "ghost")
	requireAppErr(t, err, http.StatusNotFound, "No product found")

	got, err := ps.Get(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Red Chair", got.Title)
}

func TestListProducts(t *testing.T) {
	us, ps := newServices(t, nil)
	ctx := context.Background()
	alice := register(t, us, "alice@example.com")

	for _, productType := range []string{"furniture", "lighting", "furniture"} {
		in := validInput()
		in.ProductType = productType
		_, err := ps.Create(ctx, alice, in)
		require.NoError(t, err)
	}

	all, err := ps.List(ctx, AllProductTypes)
	require.NoError(t, err)
	assert.Len(t, all.Products, 3)
	assert.Equal(t, int64(3), all.Total)
	assert.True(t, all.Products[0].CreatedAt.Before(all.Products[2].CreatedAt), "oldest first")

	lighting, err := ps.List(ctx, "lighting")
	require.NoError(t, err)
	assert.Len(t, lighting.Products, 1)
	assert.Equal(t, int64(3), lighting.Total, "total counts the whole collection")

	none, err := ps.List(ctx, "garden")
	require.NoError(t, err)
	assert.Empty(t, none.Products)
}

func TestListProducts_CountFailure(t *testing.T) {
	m := &fakeManager{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}
	m.products = &failingProducts{Repository: m.MemoryRepositoryManager.Products(), countErr: errors.New("timeout")}
	_, ps := newServices(t, m)

	_, err := ps.List(context.Background(), AllProductTypes)
	requireAppErr(t, err, http.StatusInternalServerError, internalMessage)
}

func TestListPage(t *testing.T) {
	us, ps := newServices(t, nil)
	ctx := context.Background()
	alice := register(t, us, "alice@example.com")

	var ids []string
	for i := 0; i < 12; i++ {
		in := validInput()
		in.Title = fmt.Sprintf("Product %02d", i)
		p, err := ps.Create(ctx, alice, in)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	_, err := ps.ListPage(ctx, anonymous, 1)
	requireAppErr(t, err, http.StatusUnauthorized, "Not authenticated.")

	first, err := ps.ListPage(ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, first.Products, PageSize)
	assert.Equal(t, ids[11], first.Products[0].ID, "newest first")
	assert.Equal(t, int64(12), first.Total)

	second, err := ps.ListPage(ctx, alice, 2)
	require.NoError(t, err)
	require.Len(t, second.Products, 2)
	assert.Equal(t, ids[0], second.Products[1].ID)

	third, err := ps.ListPage(ctx, alice, 3)
	require.NoError(t, err)
	assert.Empty(t, third.Products)
}

func TestCleanup(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	us, ps := newServices(t, m)
	ctx := context.Background()
	alice := register(t, us, "alice@example.com")

	for _, pid := range []string{"p1", "p2", "p3"} {
		require.NoError(t, m.Users().AddProduct(ctx, alice.UserID, pid))
	}

	_, err := ps.Cleanup(ctx, anonymous, []string{"p1"})
	requireAppErr(t, err, http.StatusUnauthorized, "Not Authenticated.")

	_, err = ps.Cleanup(ctx, alice, nil)
	requireAppErr(t, err, http.StatusUnprocessableEntity, "productIdArray is required.")

	_, err = ps.Cleanup(ctx, auth.Identity{UserID: "ghost"}, []string{})
	requireAppErr(t, err, http.StatusUnauthorized, "No user found.")

	dropped, err := ps.Cleanup(ctx, alice, []string{"p3", "p1", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, dropped)

	u, _ := m.Users().GetByID(ctx, alice.UserID)
	assert.Equal(t, []string{"p1", "p3"}, u.ProductIDs, "user order is kept")

	dropped, err = ps.Cleanup(ctx, alice, []string{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, dropped)
}

func TestCleanup_ConcurrentCreateKeepsEveryReferenceAccounted(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	us, ps := newServices(t, m)
	ctx := context.Background()
	alice := register(t, us, "alice@example.com")

	const creates = 20

	var (
		mu      sync.Mutex
		created []string
		dropped []string
		wg      sync.WaitGroup
	)

	for i := 0; i < creates; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p, err := ps.Create(ctx, alice, validInput())
			if assert.NoError(t, err) {
				mu.Lock()
				created = append(created, p.ID)
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			d, err := ps.Cleanup(ctx, alice, []string{})
			assert.NoError(t, err)
			mu.Lock()
			dropped = append(dropped, d...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	u, err := m.Users().GetByID(ctx, alice.UserID)
	require.NoError(t, err)

	// every created id is either still referenced or was reported as dropped
	accounted := append(slices.Clone(u.ProductIDs), dropped...)
	assert.ElementsMatch(t, created, accounted)
}

func TestByIDs(t *testing.T) {
	us, ps := newServices(t, nil)
	ctx := context.Background()
	alice := register(t, us, "alice@example.com")

	p, err := ps.Create(ctx, alice, validInput())
	require.NoError(t, err)

	got, err := ps.ByIDs(ctx, []string{"ghost", p.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)
}

func TestClock_StrictlyIncreasing(t *testing.T) {
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 123456789, time.UTC)
	c := newClock(func() time.Time { return frozen })

	a := c.stamp()
	b := c.stamp()
	assert.Equal(t, frozen.Truncate(time.Millisecond), a)
	assert.Equal(t, time.Millisecond, b.Sub(a))

	later := frozen.Add(time.Hour)
	assert.True(t, c.after(later).After(later))
}
