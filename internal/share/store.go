package share

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sendrec/mediashare/internal/database"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound    = errors.New("share not found")
	ErrInvalidUnit = errors.New("invalid duration unit")
	ErrTooLong     = errors.New("share duration too long")
)

var units = map[string]time.Duration{
	"seconds": time.Second,
	"minutes": time.Minute,
	"hours":   time.Hour,
	"days":    24 * time.Hour,
}

// Lifetime converts a share duration such as (7, "days") into a time.Duration.
func Lifetime(expires int, unit string) (time.Duration, error) {
	base, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	if expires < 0 {
		return 0, fmt.Errorf("negative duration: %d", expires)
	}
	if int64(expires) > math.MaxInt64/int64(base) {
		return 0, fmt.Errorf("%w: %d %s", ErrTooLong, expires, unit)
	}
	return time.Duration(expires) * base, nil
}

// Store persists share links in the shares table.
type Store struct {
	db  database.DBTX
	now func() time.Time
}

func NewStore(db database.DBTX) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) List(ctx context.Context, path string) ([]Link, error) {
	rows, err := s.db.Query(ctx,
		`SELECT hash, path, expire, password_hash, token, created_at FROM shares WHERE path = $1 ORDER BY created_at DESC`,
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("query shares: %w", err)
	}
	defer rows.Close()

	links := make([]Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}
	return links, nil
}

func (s *Store) Get(ctx context.Context, hash string) (Link, error) {
	row := s.db.QueryRow(ctx,
		`SELECT hash, path, expire, password_hash, token, created_at FROM shares WHERE hash = $1`,
		hash,
	)
	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Link{}, ErrNotFound
	}
	if err != nil {
		return Link{}, fmt.Errorf("get share: %w", err)
	}
	return link, nil
}

func (s *Store) Create(ctx context.Context, req CreateRequest) (Link, error) {
	lifetime, err := Lifetime(req.Expires, req.Unit)
	if err != nil {
		return Link{}, err
	}

	hash, err := randomToken(9)
	if err != nil {
		return Link{}, err
	}
	token, err := randomToken(32)
	if err != nil {
		return Link{}, err
	}

	link := Link{Hash: hash, Path: req.Path, Token: token}
	if lifetime > 0 {
		link.Expire = s.now().Add(lifetime).Unix()
	}

	var passwordHash *string
	if req.Password != "" {
		hashed, err := HashPassword(req.Password)
		if err != nil {
			return Link{}, fmt.Errorf("hash share password: %w", err)
		}
		passwordHash = &hashed
		link.PasswordHash = hashed
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO shares (hash, path, expire, password_hash, token) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		link.Hash, link.Path, link.Expire, passwordHash, link.Token,
	).Scan(&link.CreatedAt)
	if err != nil {
		return Link{}, fmt.Errorf("insert share: %w", err)
	}
	return link, nil
}

func scanLink(row pgx.Row) (Link, error) {
	var link Link
	var passwordHash *string
	if err := row.Scan(&link.Hash, &link.Path, &link.Expire, &passwordHash, &link.Token, &link.CreatedAt); err != nil {
		return Link{}, err
	}
	if passwordHash != nil {
		link.PasswordHash = *passwordHash
	}
	return link, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
