package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryLookup(t *testing.T) {
	registry := DefaultRegistry()

	v, ok := registry.Lookup("news")
	require.True(t, ok)
	assert.Equal(t, "articles_news", v.Table())

	alias, ok := registry.Lookup("Reviews")
	require.True(t, ok)
	assert.Equal(t, VariantBookReview, alias.Tag)

	_, ok = registry.Lookup("gossip")
	assert.False(t, ok)

	assert.Len(t, registry.All(), 13)
}

func TestVariantItemsUnpack(t *testing.T) {
	registry := DefaultRegistry()
	v, _ := registry.Lookup(VariantPaper)

	list := v.NewList().(*[]Paper)
	*list = append(*list, Paper{Article: Article{ID: 7, Title: "On sparrows"}})

	items := v.Items(list)
	require.Len(t, items, 1)
	assert.Equal(t, uint(7), items[0].GetID())
	assert.Equal(t, "On sparrows", items[0].GetTitle())

	// Counters are addressable through the interface
	items[0].GetCounters().Likes = 3
	assert.Equal(t, int64(3), (*list)[0].Likes)
}

func TestQAVisibilityRequiresApproval(t *testing.T) {
	qa := &QA{}
	qa.IsPublished = true
	assert.False(t, qa.Visible())

	qa.IsApproved = true
	assert.True(t, qa.Visible())

	news := &News{}
	news.IsPublished = true
	assert.True(t, news.Visible())
}

func TestResetSystemFields(t *testing.T) {
	news := &News{Article: Article{ID: 4, Title: "t"}}
	news.Likes = 99
	news.TotalViews = 12

	news.ResetSystemFields()

	assert.Zero(t, news.ID)
	assert.Zero(t, news.Likes)
	assert.Zero(t, news.TotalViews)
	assert.Equal(t, "t", news.Title)
}

func TestIdentityKeysAndNicknames(t *testing.T) {
	user := AuthenticatedIdentity(12, "mei", false)
	anon := AnonymousIdentity("a1b2c3d4e5")

	assert.Equal(t, "user:12", user.Key())
	assert.Equal(t, "session:a1b2c3d4e5", anon.Key())
	assert.Equal(t, "mei", user.DefaultNickname())
	assert.Equal(t, "Reader_d4e5", anon.DefaultNickname())
	assert.Equal(t, AnonymousNickname, AnonymousIdentity("").DefaultNickname())
}
