package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
)

type mockForumRepo struct {
	threads        map[string]models.ForumThread
	replies        map[string]models.ForumReply
	threadOrder    []string
	deletedThreads []string
	deletedReplies []string
}

func (m *mockForumRepo) ListThreads(ctx context.Context, lessonID string) ([]models.ForumThread, error) {
	var out []models.ForumThread
	for _, id := range m.threadOrder {
		if m.threads[id].LessonID == lessonID {
			out = append(out, m.threads[id])
		}
	}
	return out, nil
}

func (m *mockForumRepo) FindThread(ctx context.Context, id string) (*models.ForumThread, error) {
	thread, ok := m.threads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &thread, nil
}

func (m *mockForumRepo) ListReplies(ctx context.Context, threadIDs []string) ([]models.ForumReply, error) {
	wanted := map[string]bool{}
	for _, id := range threadIDs {
		wanted[id] = true
	}
	var out []models.ForumReply
	for _, id := range []string{"r1", "r2", "r3"} {
		if reply, ok := m.replies[id]; ok && wanted[reply.ThreadID] {
			out = append(out, reply)
		}
	}
	return out, nil
}

func (m *mockForumRepo) FindReply(ctx context.Context, id string) (*models.ForumReply, error) {
	reply, ok := m.replies[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &reply, nil
}

func (m *mockForumRepo) CreateThread(ctx context.Context, thread *models.ForumThread) error {
	thread.ID = "t-new"
	m.threads[thread.ID] = *thread
	return nil
}

func (m *mockForumRepo) UpdateThread(ctx context.Context, thread *models.ForumThread) error {
	m.threads[thread.ID] = *thread
	return nil
}

func (m *mockForumRepo) DeleteThread(ctx context.Context, id string) error {
	m.deletedThreads = append(m.deletedThreads, id)
	return nil
}

func (m *mockForumRepo) CreateReply(ctx context.Context, reply *models.ForumReply) error {
	reply.ID = "r-new"
	return nil
}

func (m *mockForumRepo) DeleteReply(ctx context.Context, id string) error {
	m.deletedReplies = append(m.deletedReplies, id)
	return nil
}

type mockLessonGetter struct {
	lessons map[string]models.Lesson
}

func (m *mockLessonGetter) Get(ctx context.Context, id string, includeDrafts bool) (*models.Lesson, error) {
	lesson, ok := m.lessons[id]
	if !ok || (!lesson.IsPublished && !includeDrafts) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	return &lesson, nil
}

var (
	forumAuthor = models.UserInfo{ID: "student-1", FullName: "Budi", Role: models.RoleStudent}
	forumOther  = models.UserInfo{ID: "student-2", FullName: "Sari", Role: models.RoleStudent}
	forumAdmin  = models.UserInfo{ID: "admin-1", FullName: "Staff", Role: models.RoleAdmin}
)

func newForumServiceForTest() (*ForumService, *mockForumRepo) {
	now := time.Now()
	repo := &mockForumRepo{
		threads: map[string]models.ForumThread{
			"t2": {ID: "t2", LessonID: "l1", AuthorID: "student-2", Title: "Newer", CreatedAt: now},
			"t1": {ID: "t1", LessonID: "l1", AuthorID: "student-1", Title: "Older", CreatedAt: now.Add(-time.Hour)},
		},
		replies: map[string]models.ForumReply{
			"r1": {ID: "r1", ThreadID: "t1", AuthorID: "student-2", Body: "first"},
			"r2": {ID: "r2", ThreadID: "t1", AuthorID: "student-1", Body: "second"},
			"r3": {ID: "r3", ThreadID: "t2", AuthorID: "student-1", Body: "only"},
		},
		threadOrder: []string{"t2", "t1"},
	}
	lessons := &mockLessonGetter{lessons: map[string]models.Lesson{
		"l1":    {ID: "l1", IsPublished: true},
		"draft": {ID: "draft", IsPublished: false},
	}}
	return NewForumService(repo, lessons, nil, nil), repo
}

func TestForumServiceListThreadsGroupsReplies(t *testing.T) {
	svc, _ := newForumServiceForTest()

	threads, err := svc.ListThreads(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "t2", threads[0].ID)
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, "t1", threads[1].ID)
	require.Len(t, threads[1].Replies, 2)
	assert.Equal(t, "first", threads[1].Replies[0].Body)
	assert.Equal(t, "second", threads[1].Replies[1].Body)
}

func TestForumServiceDraftLessonHidden(t *testing.T) {
	svc, _ := newForumServiceForTest()

	_, err := svc.ListThreads(context.Background(), "draft")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.CreateThread(context.Background(), forumAuthor, "draft", dto.ThreadRequest{Title: "Help", Body: "Stuck"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestForumServiceCreateThreadUsesActor(t *testing.T) {
	svc, _ := newForumServiceForTest()

	thread, err := svc.CreateThread(context.Background(), forumAuthor, "l1", dto.ThreadRequest{Title: " Loops ", Body: "How do loops work?"})
	require.NoError(t, err)
	assert.Equal(t, "student-1", thread.AuthorID)
	assert.Equal(t, "Budi", thread.AuthorName)
	assert.Equal(t, "Loops", thread.Title)
}

func TestForumServiceModerationRules(t *testing.T) {
	svc, repo := newForumServiceForTest()
	ctx := context.Background()
	edit := dto.ThreadRequest{Title: "Edited", Body: "Edited body"}

	_, err := svc.UpdateThread(ctx, forumOther, "t1", edit)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	updated, err := svc.UpdateThread(ctx, forumAuthor, "t1", edit)
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)

	err = svc.DeleteThread(ctx, forumOther, "t1")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	require.NoError(t, svc.DeleteThread(ctx, forumAdmin, "t1"))
	assert.Equal(t, []string{"t1"}, repo.deletedThreads)

	err = svc.DeleteReply(ctx, forumAuthor, "r1")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	require.NoError(t, svc.DeleteReply(ctx, forumOther, "r1"))
	assert.Equal(t, []string{"r1"}, repo.deletedReplies)

	err = svc.DeleteReply(ctx, forumAdmin, "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestForumServiceReplyValidation(t *testing.T) {
	svc, _ := newForumServiceForTest()

	_, err := svc.Reply(context.Background(), forumOther, "t1", dto.ReplyRequest{})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "body")

	reply, err := svc.Reply(context.Background(), forumOther, "t1", dto.ReplyRequest{Body: "Try a for loop"})
	require.NoError(t, err)
	assert.Equal(t, "student-2", reply.AuthorID)

	_, err = svc.Reply(context.Background(), forumOther, "missing", dto.ReplyRequest{Body: "hello"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
