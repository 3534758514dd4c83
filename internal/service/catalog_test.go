package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/quecomemoshoy/internal/domain"
)

func withCategory(it domain.CatalogItem, name string) domain.CatalogItem {
	it.CategoryName = name
	return it
}

func TestCatalogView_StartsLoading(t *testing.T) {
	v := NewCatalogView(new(mockProductRepository), newTestLogger())
	assert.Equal(t, CatalogLoading, v.Snapshot().State)
}

func TestCatalogView_GroupsInFirstSeenOrder(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("ListWithCategory", mock.Anything).Return([]domain.CatalogItem{
		withCategory(item("1", "Coca", 500), "Bebidas"),
		withCategory(item("2", "Empanada", 700), "Entradas"),
		withCategory(item("3", "Agua", 800), "Bebidas"),
		withCategory(item("4", "Pizza", 2500), "Pizzas"),
	}, nil)

	v := NewCatalogView(repo, newTestLogger())
	snap := v.Activate(context.Background())

	assert.Equal(t, CatalogReady, snap.State)
	require.Len(t, snap.Sections, 3)
	assert.Equal(t, "Bebidas", snap.Sections[0].Category)
	assert.Equal(t, "Entradas", snap.Sections[1].Category)
	assert.Equal(t, "Pizzas", snap.Sections[2].Category)
	require.Len(t, snap.Sections[0].Items, 2)
	assert.Equal(t, "Coca", snap.Sections[0].Items[0].Name)
	assert.Equal(t, "Agua", snap.Sections[0].Items[1].Name)
	assert.Empty(t, snap.Error)
}

func TestCatalogView_EmptyMenu(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("ListWithCategory", mock.Anything).Return([]domain.CatalogItem{}, nil)

	snap := NewCatalogView(repo, newTestLogger()).Activate(context.Background())
	assert.Equal(t, CatalogReady, snap.State)
	assert.Empty(t, snap.Sections)
}

func TestCatalogView_ErrorKeepsRawText(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("ListWithCategory", mock.Anything).Return(nil, errors.New("relation \"products\" does not exist"))

	v := NewCatalogView(repo, newTestLogger())
	snap := v.Activate(context.Background())

	assert.Equal(t, CatalogError, snap.State)
	assert.Equal(t, `relation "products" does not exist`, snap.Error)
	assert.Nil(t, snap.Sections)
	assert.Equal(t, snap, v.Snapshot())
}
