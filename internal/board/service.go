package board

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/memeboard/memeboard/internal/models"
	"github.com/memeboard/memeboard/internal/uploads"
	"github.com/memeboard/memeboard/pkg/logger"
)

// allowed upload extensions (lowercase, no dot)
var allowedExt = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true,
}

// DocumentStore is the persistence surface the service needs: a full-document
// read and a serialized load-mutate-save cycle.
type DocumentStore interface {
	Load() (*models.Document, error)
	Update(fn func(doc *models.Document) error) error
}

// Service implements the board operations: registration, authentication,
// uploads, voting and deletion. It holds no state between calls; the document
// store is the single source of truth.
type Service struct {
	store DocumentStore
	files uploads.Store
}

func NewService(store DocumentStore, files uploads.Store) *Service {
	return &Service{store: store, files: files}
}

// RegisterUser creates a non-admin account with a bcrypt password hash.
func (s *Service) RegisterUser(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password required", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.Update(func(doc *models.Document) error {
		if _, ok := doc.Users[username]; ok {
			return ErrDuplicateUser
		}
		doc.Users[username] = models.User{PasswordHash: string(hash)}
		return nil
	})
}

// Authenticate checks credentials and returns the caller's principal. Unknown
// user and wrong password both return ErrInvalidCredentials so usernames
// cannot be enumerated.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.Principal, error) {
	doc, err := s.store.Load()
	if err != nil {
		return models.Principal{}, err
	}
	u, ok := doc.Users[strings.TrimSpace(username)]
	if !ok {
		return models.Principal{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return models.Principal{}, ErrInvalidCredentials
	}
	p := models.Principal{Username: strings.TrimSpace(username), Role: models.RoleUser}
	if u.IsAdmin {
		p.Role = models.RoleAdmin
	}
	return p, nil
}

// EnsureAdmin creates (or promotes) an admin account. Used at startup to
// bootstrap the first administrator; a no-op when the user already is one.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("%w: admin username and password required", ErrInvalidInput)
	}
	return s.store.Update(func(doc *models.Document) error {
		if u, ok := doc.Users[username]; ok {
			if u.IsAdmin {
				return nil
			}
			u.IsAdmin = true
			doc.Users[username] = u
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		doc.Users[username] = models.User{PasswordHash: string(hash), IsAdmin: true}
		return nil
	})
}

// UploadMeme validates the image, stores it under a timestamp-prefixed key and
// appends the meme record with the next id.
func (s *Service) UploadMeme(ctx context.Context, p models.Principal, caption, filename string, r io.Reader, size int64, contentType string) (models.Meme, error) {
	if filename == "" || r == nil {
		return models.Meme{}, fmt.Errorf("%w: image file required", ErrInvalidInput)
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if !allowedExt[ext] {
		return models.Meme{}, fmt.Errorf("%w: file type %q not allowed", ErrInvalidInput, ext)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%d_%s", now.Unix(), uploads.Sanitize(filename))
	stored, err := s.files.Save(ctx, key, r, size, contentType)
	if err != nil {
		return models.Meme{}, fmt.Errorf("store image: %w", err)
	}

	var meme models.Meme
	err = s.store.Update(func(doc *models.Document) error {
		meme = models.Meme{
			ID:        doc.NextMemeID,
			Caption:   strings.TrimSpace(caption),
			Image:     stored,
			Author:    p.Username,
			CreatedAt: now.Truncate(time.Second),
			Votes:     map[string]int{},
		}
		doc.Memes = append(doc.Memes, meme)
		doc.NextMemeID++
		return nil
	})
	if err != nil {
		// the record never made it in; don't leave the image behind
		if rerr := s.files.Remove(ctx, stored); rerr != nil {
			logger.Warnf("cleanup of orphaned image %s failed: %v", stored, rerr)
		}
		return models.Meme{}, err
	}
	return meme, nil
}

// Vote applies the vote state machine for the principal on the given meme and
// returns the updated meme.
func (s *Service) Vote(ctx context.Context, p models.Principal, memeID int, action string) (models.Meme, error) {
	requested, err := ParseAction(action)
	if err != nil {
		return models.Meme{}, err
	}
	var updated models.Meme
	err = s.store.Update(func(doc *models.Document) error {
		for i := range doc.Memes {
			if doc.Memes[i].ID == memeID {
				applyVote(&doc.Memes[i], p.Username, requested)
				updated = doc.Memes[i]
				return nil
			}
		}
		return fmt.Errorf("%w: id %d", ErrNotFound, memeID)
	})
	if err != nil {
		return models.Meme{}, err
	}
	return updated, nil
}

// DeleteMeme removes the meme record and best-effort deletes its image. Image
// removal failure is logged, never surfaced: the record deletion stands.
func (s *Service) DeleteMeme(ctx context.Context, p models.Principal, memeID int) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	var image string
	err := s.store.Update(func(doc *models.Document) error {
		for i := range doc.Memes {
			if doc.Memes[i].ID == memeID {
				image = doc.Memes[i].Image
				doc.Memes = append(doc.Memes[:i], doc.Memes[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: id %d", ErrNotFound, memeID)
	})
	if err != nil {
		return err
	}
	if image != "" {
		if rerr := s.files.Remove(ctx, image); rerr != nil {
			logger.Errorf("deleting image %s for meme %d: %v", image, memeID, rerr)
		}
	}
	return nil
}

// FeedMeme is a meme as presented in the feed: record fields plus the
// computed score and the viewer's own vote state.
type FeedMeme struct {
	ID        int       `json:"id"`
	Caption   string    `json:"caption"`
	Image     string    `json:"image"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Score     int       `json:"score"`
	MyVote    int       `json:"my_vote"`
}

// Feed returns all memes newest first. viewer may be empty (anonymous); then
// every MyVote is 0.
func (s *Service) Feed(ctx context.Context, viewer string) ([]FeedMeme, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	memes := make([]models.Meme, len(doc.Memes))
	copy(memes, doc.Memes)
	sortFeed(memes)

	out := make([]FeedMeme, 0, len(memes))
	for _, m := range memes {
		out = append(out, FeedMeme{
			ID:        m.ID,
			Caption:   m.Caption,
			Image:     m.Image,
			Author:    m.Author,
			CreatedAt: m.CreatedAt,
			Score:     Score(m),
			MyVote:    MyVote(m, viewer),
		})
	}
	return out, nil
}

// OpenImage returns the stored image bytes for a feed entry.
func (s *Service) OpenImage(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.files.Open(ctx, key)
}
