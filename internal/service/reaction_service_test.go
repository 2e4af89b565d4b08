package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"inkwell/internal/apperror"
	"inkwell/internal/model"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestToggleMatchesReferenceTally(t *testing.T) {
	f := newFixture(t)
	svc := f.reactions()
	news := testutil.SeedNews(t, f.db, "tally", true)
	ctx := context.Background()

	readers := []model.Identity{
		model.AnonymousIdentity("s1"),
		model.AnonymousIdentity("s2"),
		model.AuthenticatedIdentity(1, "ann", false),
		model.AuthenticatedIdentity(2, "bob", false),
	}
	state := map[string]string{}
	kinds := []string{model.ReactionLike, model.ReactionDislike}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		reader := readers[rng.Intn(len(readers))]
		kind := kinds[rng.Intn(len(kinds))]

		res, err := svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", ID: news.ID, Type: kind}, reader)
		require.NoError(t, err)

		prev := state[reader.Key()]
		switch prev {
		case "":
			assert.Equal(t, model.ActionCreated, res.Action)
			state[reader.Key()] = kind
		case kind:
			assert.Equal(t, model.ActionRemoved, res.Action)
			delete(state, reader.Key())
		default:
			assert.Equal(t, model.ActionSwitched, res.Action)
			state[reader.Key()] = kind
		}

		var likes, dislikes int64
		for _, k := range state {
			if k == model.ReactionLike {
				likes++
			} else {
				dislikes++
			}
		}
		require.Equal(t, likes, res.Likes, "step %d", i)
		require.Equal(t, dislikes, res.Dislikes, "step %d", i)
	}

	stored := f.counters(t, model.VariantNews, news.ID)
	var rows int64
	f.db.Model(&model.Reaction{}).Count(&rows)
	assert.Equal(t, int64(len(state)), rows)
	assert.Equal(t, stored.Likes+stored.Dislikes, rows)
}

func TestConcurrentLikesFromDistinctReaders(t *testing.T) {
	f := newFixture(t)
	svc := f.reactions()
	news := testutil.SeedNews(t, f.db, "crowd", true)

	const readers = 20
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Toggle(context.Background(),
				ToggleReactionRequest{Variant: "news", ID: news.ID, Type: model.ReactionLike},
				model.AnonymousIdentity(fmt.Sprintf("session-%d", n)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(readers), f.counters(t, model.VariantNews, news.ID).Likes)
}

func TestToggleSwitchAndCancel(t *testing.T) {
	f := newFixture(t)
	svc := f.reactions()
	news := testutil.SeedNews(t, f.db, "switch", true)
	ctx := context.Background()
	reader := model.AuthenticatedIdentity(9, "kim", false)

	_, err := svc.Toggle(ctx, ToggleReactionRequest{Model: "News", ID: news.ID, Type: "like"}, reader)
	require.NoError(t, err)

	res, err := svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", ID: news.ID, Type: "dislike"}, reader)
	require.NoError(t, err)
	assert.Equal(t, model.ActionSwitched, res.Action)
	require.NotNil(t, res.Current)
	assert.Equal(t, "dislike", *res.Current)
	assert.Equal(t, "dislike", svc.CurrentReaction(ctx, model.VariantNews, news.ID, reader))

	res, err = svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", ID: news.ID, Type: "dislike"}, reader)
	require.NoError(t, err)
	assert.Equal(t, model.ActionRemoved, res.Action)
	assert.Equal(t, int64(0), res.Likes)
	assert.Equal(t, int64(0), res.Dislikes)
	assert.Empty(t, svc.CurrentReaction(ctx, model.VariantNews, news.ID, reader))

	pushed := f.broadcaster.ofType("reactions")
	require.Len(t, pushed, 3)
	assert.Equal(t, model.RoomKey(model.VariantNews, news.ID), pushed[2].Room)
}

func TestToggleRejectsBadInputWithoutMutation(t *testing.T) {
	f := newFixture(t)
	svc := f.reactions()
	news := testutil.SeedNews(t, f.db, "guard", true)
	ctx := context.Background()
	reader := model.AnonymousIdentity("s")

	_, err := svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", ID: news.ID, Type: "love"}, reader)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.Toggle(ctx, ToggleReactionRequest{Variant: "podcast", ID: news.ID, Type: "like"}, reader)
	assert.ErrorIs(t, err, apperror.ErrUnknownVariant)

	_, err = svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", ID: news.ID + 100, Type: "like"}, reader)
	assert.ErrorIs(t, err, apperror.ErrItemNotFound)

	_, err = svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", Type: "like"}, reader)
	assert.ErrorIs(t, err, apperror.ErrItemNotFound)

	_, err = svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", ID: news.ID, Type: "like"}, model.Identity{})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	var rows int64
	f.db.Model(&model.Reaction{}).Count(&rows)
	assert.Zero(t, rows)
	assert.Zero(t, f.counters(t, model.VariantNews, news.ID).Likes)
	assert.Empty(t, f.broadcaster.ofType("reactions"))
}

func TestToggleRollsBackWhenCounterUpdateFails(t *testing.T) {
	f := newFixture(t)
	svc := f.reactions()
	news := testutil.SeedNews(t, f.db, "outage", true)
	ctx := context.Background()
	first := model.AnonymousIdentity("s-first")
	second := model.AnonymousIdentity("s-second")

	failing := false
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("fail_counter_update", func(tx *gorm.DB) {
		if failing && tx.Statement.Table == "articles_news" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", ID: news.ID, Type: "like"}, first)
	require.NoError(t, err)
	failing = true

	// created
	_, err = svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", ID: news.ID, Type: "like"}, second)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindStorage))
	assert.Empty(t, svc.CurrentReaction(ctx, model.VariantNews, news.ID, second))

	// switched
	_, err = svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", ID: news.ID, Type: "dislike"}, first)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindStorage))
	assert.Equal(t, model.ReactionLike, svc.CurrentReaction(ctx, model.VariantNews, news.ID, first))

	var rows int64
	f.db.Model(&model.Reaction{}).Count(&rows)
	assert.Equal(t, int64(1), rows)
	counters := f.counters(t, model.VariantNews, news.ID)
	assert.Equal(t, int64(1), counters.Likes)
	assert.Zero(t, counters.Dislikes)
	assert.Len(t, f.broadcaster.ofType("reactions"), 1)

	failing = false
	res, err := svc.Toggle(ctx, ToggleReactionRequest{Variant: "news", ID: news.ID, Type: "like"}, second)
	require.NoError(t, err)
	assert.Equal(t, model.ActionCreated, res.Action)
	assert.Equal(t, int64(2), res.Likes)
}
