package domain

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	JoinCodeLength = 6

	joinCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	charsetLen = big.NewInt(int64(len(joinCodeChars)))

	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrCodeExhausted     = errors.New("join code generation exhausted")
	ErrNotRoomOwner      = errors.New("requester is not the room owner")
	ErrInvalidInput      = errors.New("invalid input")
)

// Room is a named, code-addressable sharing context. Ownership is carried by
// CreatedBy and is distinct from membership: the creator manages the room but
// is not inserted into the membership set.
type Room struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Code      string    `bson:"code" json:"code"`
	CreatedBy string    `bson:"created_by" json:"created_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Membership records that a user joined a room. At most one row exists per
// (room_id, user_id) pair; it is never updated in place.
type Membership struct {
	RoomID   string    `bson:"room_id" json:"room_id"`
	UserID   string    `bson:"user_id" json:"user_id"`
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
}

type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	GetByCode(ctx context.Context, code string) (*Room, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, userID string) ([]Room, error)
}

type MembershipRepository interface {
	// Add inserts the membership row. Re-adding an existing (room, user)
	// pair is a no-op, never an error.
	Add(ctx context.Context, m *Membership) error
	Remove(ctx context.Context, roomID, userID string) error
	RemoveByRoom(ctx context.Context, roomID string) error
	Exists(ctx context.Context, roomID, userID string) (bool, error)
	ListRoomIDsByUser(ctx context.Context, userID string) ([]string, error)
}

func NewRoom(name, createdBy string) (*Room, error) {
	if strings.TrimSpace(name) == "" || createdBy == "" {
		return nil, ErrInvalidInput
	}

	code, err := GenerateJoinCode()
	if err != nil {
		return nil, err
	}

	return &Room{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Code:      code,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (r *Room) IsOwner(userID string) bool {
	return userID != "" && r.CreatedBy == userID
}

// RegenerateCode replaces the join code after a uniqueness collision.
func (r *Room) RegenerateCode() error {
	code, err := GenerateJoinCode()
	if err != nil {
		return err
	}
	r.Code = code
	return nil
}

func NewMembership(roomID, userID string) *Membership {
	return &Membership{
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
}

// NormalizeJoinCode maps human input onto the canonical code form.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func GenerateJoinCode() (string, error) {
	var sb strings.Builder
	sb.Grow(JoinCodeLength)

	for i := 0; i < JoinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(joinCodeChars[n.Int64()])
	}

	return sb.String(), nil
}
