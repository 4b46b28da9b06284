package models

import "time"

// User is a registered account. Users are keyed by username in the document
// and are effectively immutable after registration.
type User struct {
	PasswordHash string `json:"password_hash"`
	IsAdmin      bool   `json:"is_admin"`
}

// Meme is an uploaded image with a caption. Votes maps username -> +1|-1;
// absence of a key means no vote.
type Meme struct {
	ID        int            `json:"id"`
	Caption   string         `json:"caption"`
	Image     string         `json:"image"`
	Author    string         `json:"author"`
	CreatedAt time.Time      `json:"created_at"`
	Votes     map[string]int `json:"votes"`
}

// Document is the whole persisted state: every user, every meme and the id
// counter. It is loaded fully, mutated and written back as a unit.
//
// Invariant: NextMemeID is strictly greater than every existing meme id;
// ids are never reused, even after deletion.
type Document struct {
	Users      map[string]User `json:"users"`
	Memes      []Meme          `json:"memes"`
	NextMemeID int             `json:"next_meme_id"`
}

// NewDocument returns an empty document with the id counter at 1.
func NewDocument() *Document {
	return &Document{Users: map[string]User{}, Memes: []Meme{}, NextMemeID: 1}
}

// Role is the capability level of an authenticated principal.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

// Principal identifies the authenticated caller of an operation. It is passed
// explicitly into operations that need it rather than read from ambient state.
type Principal struct {
	Username string
	Role     Role
}

// IsAdmin reports whether the principal carries the admin capability.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
