package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

// pgUniqueViolation is the SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// BunUserStore is a UserStore backed by a bun repository. It works with
// the postgres and sqlite dialects opened by OpenDB.
type BunUserStore struct {
	repository.Repository[*User]
	db  *bun.DB
	now func() time.Time
}

var _ UserStore = (*BunUserStore)(nil)

// NewBunUserStore wraps db. Call CreateSchema before first use on a
// fresh database.
func NewBunUserStore(db *bun.DB) *BunUserStore {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &BunUserStore{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
}

// CreateSchema creates the users table and its unique email index
func (s *BunUserStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// Create inserts user. Uniqueness is left to the database index so
// concurrent registrations of one email cannot both succeed.
func (s *BunUserStore) Create(ctx context.Context, user *User) (*User, error) {
	return s.CreateTx(ctx, s.db, user)
}

func (s *BunUserStore) CreateTx(ctx context.Context, tx bun.IDB, user *User, criteria ...repository.InsertCriteria) (*User, error) {
	if user == nil {
		return nil, errors.New("create user: nil record")
	}

	record := *user
	prepareUserDefaults(&record, s.now().UTC())

	created, err := s.Repository.CreateTx(ctx, tx, &record, criteria...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	if created == nil {
		created = &record
	}

	return created, nil
}

func (s *BunUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOneTx(ctx, s.db, "email", NormalizeEmail(email))
}

// FindByID returns ErrUserNotFound for ids that are not valid UUIDs
func (s *BunUserStore) FindByID(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOneTx(ctx, s.db, "id", uid)
}

// GetByIdentifier resolves identifier as an email when it contains an
// at sign and as a user id otherwise.
func (s *BunUserStore) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return s.GetByIdentifierTx(ctx, s.db, identifier, criteria...)
}

func (s *BunUserStore) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return s.findOneTx(ctx, tx, "email", NormalizeEmail(identifier), criteria...)
	}

	uid, err := uuid.Parse(identifier)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOneTx(ctx, tx, "id", uid, criteria...)
}

func (s *BunUserStore) findOneTx(ctx context.Context, tx bun.IDB, column string, value any, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}
	return record, nil
}

// isUniqueViolation matches the postgres SQLSTATE or the sqlite message
// anywhere in the chain.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if strings.Contains(e.Error(), "UNIQUE constraint failed") {
			return true
		}
	}
	return false
}
