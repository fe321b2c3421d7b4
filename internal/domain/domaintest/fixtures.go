package domaintest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"sealedger/internal/core/types"
	"sealedger/internal/domain/catalogs/farmer"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/catalogs/serviceprovider"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/internal/domain/modules"
)

// Site creates a site and returns its id.
func (e *Env) Site(t testing.TB, name string) string {
	t.Helper()
	s, err := site.NewService(e.Deps).Create(context.Background(), site.NewSite("", name))
	require.NoError(t, err)
	return s.ID
}

// Farmer creates a farmer at siteID and returns its id.
func (e *Env) Farmer(t testing.TB, siteID, first, last string) string {
	t.Helper()
	f, err := farmer.NewService(e.Deps).Create(context.Background(), farmer.NewFarmer(first, last, siteID))
	require.NoError(t, err)
	return f.ID
}

// SeaweedType creates a seaweed type with prices in force from 2024-01-01.
func (e *Env) SeaweedType(t testing.TB, name string, wet, dry float64) string {
	t.Helper()
	st := seaweedtype.NewSeaweedType(name, types.NewMoney(wet), types.NewMoney(dry), types.MustDate("2024-01-01"))
	st, err := seaweedtype.NewService(e.Deps).Create(context.Background(), st)
	require.NoError(t, err)
	return st.ID
}

// ServiceProvider creates a service provider and returns its id.
func (e *Env) ServiceProvider(t testing.TB, name string) string {
	t.Helper()
	p, err := serviceprovider.NewService(e.Deps).Create(context.Background(), serviceprovider.NewServiceProvider(name, "cutting"))
	require.NoError(t, err)
	return p.ID
}

// Module creates a free module and returns it.
func (e *Env) Module(t testing.TB, siteID, code string, lines int) *modules.Module {
	t.Helper()
	m, err := modules.NewService(e.Deps).Create(context.Background(), modules.CreateInput{SiteID: siteID, Code: code, Lines: lines})
	require.NoError(t, err)
	return m
}
