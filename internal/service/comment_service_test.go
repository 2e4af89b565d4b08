package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"inkwell/internal/apperror"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) comments(publisher EventPublisher) CommentService {
	return NewCommentService(repository.NewCommentRepository(f.db, nil), f.contentRepo, f.registry, publisher, f.broadcaster)
}

func TestCreateCommentDefaultsAndThreads(t *testing.T) {
	f := newFixture(t)
	svc := f.comments(nil)
	news := testutil.SeedNews(t, f.db, "thread", true)
	ctx := context.Background()
	reader := model.AnonymousIdentity("abcdef12")

	root, err := svc.Create(ctx, CreateCommentRequest{Variant: "news", ID: news.ID, Content: "  first  "}, reader)
	require.NoError(t, err)
	assert.Equal(t, "first", root.Content)
	assert.Equal(t, "Reader_ef12", root.Nickname)

	reply, err := svc.Create(ctx, CreateCommentRequest{
		Model:    "news",
		ID:       news.ID,
		Content:  "reply",
		Parent:   &root.ID,
		Nickname: "Ann",
	}, model.AuthenticatedIdentity(3, "ann", false))
	require.NoError(t, err)
	require.NotNil(t, reply.UserID)
	assert.Equal(t, "Ann", reply.Nickname)

	thread, err := svc.List(ctx, "news", news.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, reply.ID, thread[0].Replies[0].ID)

	// no broker: both comments go straight to the room
	pushed := f.broadcaster.ofType("comment")
	require.Len(t, pushed, 2)
	assert.Equal(t, model.RoomKey(model.VariantNews, news.ID), pushed[0].Room)
}

func TestCreateCommentRejectsForeignParent(t *testing.T) {
	f := newFixture(t)
	svc := f.comments(nil)
	first := testutil.SeedNews(t, f.db, "one", true)
	second := testutil.SeedNews(t, f.db, "two", true)
	ctx := context.Background()
	reader := model.AnonymousIdentity("s")

	root, err := svc.Create(ctx, CreateCommentRequest{Variant: "news", ID: first.ID, Content: "hi"}, reader)
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateCommentRequest{Variant: "news", ID: second.ID, Content: "x", Parent: &root.ID}, reader)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	missing := uint(999)
	_, err = svc.Create(ctx, CreateCommentRequest{Variant: "news", ID: first.ID, Content: "x", Parent: &missing}, reader)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.Create(ctx, CreateCommentRequest{Variant: "news", ID: first.ID, Content: "   "}, reader)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.Create(ctx, CreateCommentRequest{Variant: "news", ID: 404, Content: "x"}, reader)
	assert.ErrorIs(t, err, apperror.ErrItemNotFound)

	_, err = svc.List(ctx, "podcast", first.ID)
	assert.ErrorIs(t, err, apperror.ErrUnknownVariant)
}

func TestDeleteCommentPermissions(t *testing.T) {
	f := newFixture(t)
	svc := f.comments(nil)
	news := testutil.SeedNews(t, f.db, "perm", true)
	ctx := context.Background()
	author := model.AnonymousIdentity("author")

	c, err := svc.Create(ctx, CreateCommentRequest{Variant: "news", ID: news.ID, Content: "mine"}, author)
	require.NoError(t, err)

	err = svc.Delete(ctx, c.ID, model.AnonymousIdentity("stranger"))
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	err = svc.Delete(ctx, c.ID, model.AuthenticatedIdentity(5, "u", false))
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	require.NoError(t, svc.Delete(ctx, c.ID, author))
	err = svc.Delete(ctx, c.ID, author)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	other, err := svc.Create(ctx, CreateCommentRequest{Variant: "news", ID: news.ID, Content: "theirs"}, author)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, other.ID, model.AuthenticatedIdentity(1, "editor", true)))

	thread, err := svc.List(ctx, "news", news.ID)
	require.NoError(t, err)
	assert.Empty(t, thread)
}

func TestCommentPublishedThroughBroker(t *testing.T) {
	f := newFixture(t)
	publisher := &recordingPublisher{}
	svc := f.comments(publisher)
	news := testutil.SeedNews(t, f.db, "broker", true)

	c, err := svc.Create(context.Background(), CreateCommentRequest{Variant: "news", ID: news.ID, Content: "queued"}, model.AnonymousIdentity("s"))
	require.NoError(t, err)

	require.Len(t, publisher.messages, 1)
	assert.Empty(t, f.broadcaster.ofType("comment"))

	var event CommentEvent
	require.NoError(t, json.Unmarshal(publisher.messages[0], &event))
	assert.Equal(t, model.VariantNews, event.Variant)
	assert.Equal(t, news.ID, event.ID)
	assert.Equal(t, c.ID, event.Comment.ID)

	// the worker side of the same event lands in the room
	worker := NewCommentWorker(nil, f.broadcaster)
	require.NoError(t, worker.process(publisher.messages[0]))
	require.Len(t, f.broadcaster.ofType("comment"), 1)

	assert.Error(t, worker.process([]byte("not json")))
}

func TestCommentFallsBackWhenPublishFails(t *testing.T) {
	f := newFixture(t)
	svc := f.comments(&recordingPublisher{err: errors.New("channel closed")})
	news := testutil.SeedNews(t, f.db, "fallback", true)

	_, err := svc.Create(context.Background(), CreateCommentRequest{Variant: "news", ID: news.ID, Content: "still here"}, model.AnonymousIdentity("s"))
	require.NoError(t, err)
	assert.Len(t, f.broadcaster.ofType("comment"), 1)
}
