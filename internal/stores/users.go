package stores

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MrEthical07/storefront/internal"
	"github.com/MrEthical07/storefront/kv"
	"github.com/MrEthical07/storefront/permission"
)

const UserPrefix = "user:"

// ErrUserNotFound also covers keys the backend rejects as invalid.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserUnavailable = errors.New("user store unavailable")
)

// User is the stored identity record. PasswordHash is an encoded hash, never
// the plaintext.
type User struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone,omitempty"`
	PasswordHash string          `json:"passwordHash"`
	Verified     bool            `json:"verified"`
	Role         permission.Role `json:"role"`
	CreatedAt    int64           `json:"createdAt"`
	UpdatedAt    int64           `json:"updatedAt,omitempty"`
}

type UserStore struct {
	kv kv.Store
}

func NewUserStore(store kv.Store) *UserStore {
	return &UserStore{kv: store}
}

func userKey(email string) string {
	return UserPrefix + internal.NormalizeEmail(email)
}

// Get loads the user for email. Unknown and undecodable records both report
// ErrUserNotFound.
func (s *UserStore) Get(ctx context.Context, email string) (*User, error) {
	if internal.NormalizeEmail(email) == "" {
		return nil, ErrUserNotFound
	}
	u, err := kv.GetJSON[User](ctx, s.kv, userKey(email))
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, kv.ErrNotFound), errors.Is(err, kv.ErrCorrupt), errors.Is(err, kv.ErrInvalidKey):
		return nil, ErrUserNotFound
	default:
		return nil, fmt.Errorf("%w: %v", ErrUserUnavailable, err)
	}
}

// Put writes u under its normalized email, overwriting any existing record.
func (s *UserStore) Put(ctx context.Context, u *User) error {
	u.Email = internal.NormalizeEmail(u.Email)
	if u.Email == "" {
		return fmt.Errorf("%w: empty email", ErrUserUnavailable)
	}
	if err := kv.SetJSON(ctx, s.kv, userKey(u.Email), u, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrUserUnavailable, err)
	}
	return nil
}

// List returns every user ordered by creation time.
func (s *UserStore) List(ctx context.Context) ([]*User, error) {
	keys, err := s.kv.List(ctx, UserPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserUnavailable, err)
	}
	out := make([]*User, 0, len(keys))
	for _, k := range keys {
		u, err := s.Get(ctx, strings.TrimPrefix(k, UserPrefix))
		if errors.Is(err, ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}
