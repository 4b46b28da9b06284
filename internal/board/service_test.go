package board

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memeboard/memeboard/internal/models"
	"github.com/memeboard/memeboard/internal/store"
	"github.com/memeboard/memeboard/internal/uploads"
)

func newTestService(t *testing.T) (*Service, *store.FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	st := store.NewFileStore(filepath.Join(dir, "data.json"))
	require.NoError(t, st.Init())
	files, err := uploads.NewDisk(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	return NewService(st, files), st, dir
}

func uploadTestMeme(t *testing.T, svc *Service, author, caption, filename string) models.Meme {
	t.Helper()
	body := "not a real png"
	m, err := svc.UploadMeme(context.Background(), models.Principal{Username: author},
		caption, filename, strings.NewReader(body), int64(len(body)), "image/png")
	require.NoError(t, err)
	return m
}

func TestRegisterThenAuthenticate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RegisterUser(ctx, "alice", "hunter2"))

	p, err := svc.Authenticate(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, models.RoleUser, p.Role)
	assert.False(t, p.IsAdmin())
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.RegisterUser(ctx, "", "pw"), ErrInvalidInput)
	assert.ErrorIs(t, svc.RegisterUser(ctx, "alice", ""), ErrInvalidInput)

	require.NoError(t, svc.RegisterUser(ctx, "alice", "pw"))
	assert.ErrorIs(t, svc.RegisterUser(ctx, "alice", "other"), ErrDuplicateUser)
}

func TestAuthenticateFailuresIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.RegisterUser(ctx, "alice", "hunter2"))

	_, errUnknown := svc.Authenticate(ctx, "nobody", "hunter2")
	_, errWrongPw := svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error(), "must not leak which part failed")
}

func TestEnsureAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "root", "toor"))
	p, err := svc.Authenticate(ctx, "root", "toor")
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())

	// promoting an existing regular user keeps their password
	require.NoError(t, svc.RegisterUser(ctx, "alice", "hunter2"))
	require.NoError(t, svc.EnsureAdmin(ctx, "alice", "ignored"))
	p, err = svc.Authenticate(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
}

func TestUploadMeme(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	m := uploadTestMeme(t, svc, "alice", "cat", "cat picture.png")
	assert.Equal(t, 1, m.ID)
	assert.Equal(t, "cat", m.Caption)
	assert.Equal(t, "alice", m.Author)
	assert.Empty(t, m.Votes)
	assert.True(t, strings.HasSuffix(m.Image, "_cat_picture.png"), "stored name %q", m.Image)
	assert.False(t, m.CreatedAt.IsZero())

	// image must be readable back
	rc, err := svc.OpenImage(ctx, m.Image)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	doc, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, doc.NextMemeID)

	m2 := uploadTestMeme(t, svc, "alice", "dog", "dog.webp")
	assert.Equal(t, 2, m2.ID)
}

func TestUploadMemeRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	alice := models.Principal{Username: "alice"}

	_, err := svc.UploadMeme(ctx, alice, "cap", "", nil, 0, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	for _, name := range []string{"evil.exe", "noext", "archive.tar.gz", "cat.png.sh"} {
		_, err := svc.UploadMeme(ctx, alice, "cap", name, strings.NewReader("x"), 1, "application/octet-stream")
		assert.ErrorIs(t, err, ErrInvalidInput, "filename %q", name)
	}

	// extension check is case-insensitive
	_, err = svc.UploadMeme(ctx, alice, "cap", "CAT.PNG", strings.NewReader("x"), 1, "image/png")
	assert.NoError(t, err)
}

func TestVoteLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	alice := models.Principal{Username: "alice"}

	m := uploadTestMeme(t, svc, "alice", "cat", "cat.png")

	got, err := svc.Vote(ctx, alice, m.ID, "up")
	require.NoError(t, err)
	assert.Equal(t, 1, Score(got))
	assert.Equal(t, 1, MyVote(got, "alice"))

	got, err = svc.Vote(ctx, alice, m.ID, "up")
	require.NoError(t, err)
	assert.Equal(t, 0, Score(got))
	assert.Equal(t, 0, MyVote(got, "alice"))

	got, err = svc.Vote(ctx, alice, m.ID, "down")
	require.NoError(t, err)
	assert.Equal(t, -1, MyVote(got, "alice"))

	got, err = svc.Vote(ctx, alice, m.ID, "up")
	require.NoError(t, err)
	assert.Equal(t, 1, MyVote(got, "alice"), "down to up is a direct flip")

	_, err = svc.Vote(ctx, alice, m.ID, "sideways")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Vote(ctx, alice, 999, "up")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVotePersistsAcrossLoads(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	m := uploadTestMeme(t, svc, "alice", "cat", "cat.png")

	_, err := svc.Vote(ctx, models.Principal{Username: "bob"}, m.ID, "down")
	require.NoError(t, err)

	doc, err := st.Load()
	require.NoError(t, err)
	require.Len(t, doc.Memes, 1)
	assert.Equal(t, map[string]int{"bob": -1}, doc.Memes[0].Votes)
}

func TestDeleteMeme(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	admin := models.Principal{Username: "root", Role: models.RoleAdmin}

	m := uploadTestMeme(t, svc, "alice", "cat", "cat.png")

	// non-admins are rejected
	err := svc.DeleteMeme(ctx, models.Principal{Username: "alice"}, m.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// unknown id leaves the document unchanged
	err = svc.DeleteMeme(ctx, admin, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	doc, err := st.Load()
	require.NoError(t, err)
	assert.Len(t, doc.Memes, 1)

	require.NoError(t, svc.DeleteMeme(ctx, admin, m.ID))
	doc, err = st.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Memes)
	assert.Equal(t, 2, doc.NextMemeID, "ids are never reused")

	_, err = svc.OpenImage(ctx, m.Image)
	assert.ErrorIs(t, err, uploads.ErrNotFound, "stored image must be gone")
}

func TestDeleteMemeSurvivesMissingImage(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	admin := models.Principal{Username: "root", Role: models.RoleAdmin}

	m := uploadTestMeme(t, svc, "alice", "cat", "cat.png")
	// remove the image out from under the record
	require.NoError(t, svc.files.Remove(ctx, m.Image))

	// record deletion still succeeds; the failure is only logged
	require.NoError(t, svc.DeleteMeme(ctx, admin, m.ID))
	feed, err := svc.Feed(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestFeed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	alice := models.Principal{Username: "alice"}

	m1 := uploadTestMeme(t, svc, "alice", "first", "a.png")
	m2 := uploadTestMeme(t, svc, "bob", "second", "b.png")
	_, err := svc.Vote(ctx, alice, m1.ID, "up")
	require.NoError(t, err)
	_, err = svc.Vote(ctx, models.Principal{Username: "bob"}, m1.ID, "up")
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, feed, 2)
	// both uploads land in the same second: id descending breaks the tie
	assert.Equal(t, m2.ID, feed[0].ID)
	assert.Equal(t, m1.ID, feed[1].ID)
	assert.Equal(t, 2, feed[1].Score)
	assert.Equal(t, 1, feed[1].MyVote)
	assert.Equal(t, 0, feed[0].Score)

	// anonymous viewers see no own-vote state
	anon, err := svc.Feed(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, anon[1].MyVote)

	// ordering is stable across repeated reads
	again, err := svc.Feed(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, feed, again)
}
