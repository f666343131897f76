package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name     string
		q        string
		expected []string
	}{
		{"empty query keeps all", "", []string{"A", "B", "C"}},
		{"name substring ignores case", "SHAWL", []string{"A"}},
		{"category substring", "wood", []string{"B"}},
		{"sub-category is not searched", "boxes", []string{}},
		{"no match", "teapot", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, p := range Filter(catalog, tt.q) {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestInstantSearchMatchesSubCategory(t *testing.T) {
	got := InstantSearch(testCatalog(), "Boxes")
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].ID)

	assert.Len(t, InstantSearch(testCatalog(), ""), 3)
}

func TestFetchReturnsNewestFirst(t *testing.T) {
	f := newFakeRemote()
	for _, p := range testCatalog() {
		f.PutProduct(p)
	}

	products, err := NewCatalogService(f).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "A", products[0].ID)
	assert.Equal(t, "C", products[2].ID)
}

func TestFetchError(t *testing.T) {
	f := newFakeRemote()
	f.listErr = errRemoteDown

	products, err := NewCatalogService(f).Fetch(context.Background())
	assert.ErrorIs(t, err, errRemoteDown)
	assert.Nil(t, products)
}

func TestConcurrentFetchesShareOneRead(t *testing.T) {
	f := newFakeRemote()
	for _, p := range testCatalog() {
		f.PutProduct(p)
	}
	gate := make(chan struct{})
	f.listGate = gate
	svc := NewCatalogService(f)

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			products, err := svc.Fetch(context.Background())
			if err == nil {
				results[i] = len(products)
			}
		}(i)
	}

	assert.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.listCalls >= 1
	}, time.Second, 5*time.Millisecond)
	// let the other callers join the in-flight read
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for _, n := range results {
		assert.Equal(t, 3, n)
	}
	f.mu.Lock()
	assert.Equal(t, 1, f.listCalls)
	f.mu.Unlock()
}
