package masterdata

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

func seededRepo(t *testing.T) *MemoryRepository {
	t.Helper()
	repo := NewMemoryRepository()
	require.NoError(t, Seed(context.Background(), repo))
	return repo
}

func TestSearchRanksExactCodeFirst(t *testing.T) {
	repo := seededRepo(t)
	_, err := repo.Create(context.Background(), Entity{
		Kind: voucher.EntityAccount, Code: "10", Name: "Petty Cash Control",
	})
	require.NoError(t, err)

	got, err := repo.Search(context.Background(), voucher.EntityAccount, "10", 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	require.Equal(t, "10", got[0].Code)
}

func TestSearchMatchesNameSubstring(t *testing.T) {
	repo := seededRepo(t)

	got, err := repo.Search(context.Background(), voucher.EntityAccount, "receiv", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "1200", got[0].Code)
}

func TestSearchScopedToKindAndLimit(t *testing.T) {
	repo := seededRepo(t)

	got, err := repo.Search(context.Background(), voucher.EntityTaxCode, "", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = repo.Search(context.Background(), voucher.EntityCostCenter, "1000", 5)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	repo := seededRepo(t)

	_, err := repo.Create(context.Background(), Entity{
		Kind: voucher.EntityAccount, Code: "1000", Name: "Cash Again",
	})
	require.ErrorIs(t, err, shared.ErrDuplicate)

	// same code under a different kind is fine
	_, err = repo.Create(context.Background(), Entity{
		Kind: voucher.EntityProject, Code: "1000", Name: "Numbered Project",
	})
	require.NoError(t, err)
}

func TestResolveCodeCaseInsensitive(t *testing.T) {
	repo := seededRepo(t)

	e, err := repo.ResolveCode(context.Background(), voucher.EntityTaxCode, "vat13")
	require.NoError(t, err)
	require.Equal(t, "VAT13", e.Code)
	require.True(t, e.TaxRate.Equal(decimal.NewFromInt(13)))

	_, err = repo.ResolveCode(context.Background(), voucher.EntityTaxCode, "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
