package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"auth-gateway/internal/domain"
	"auth-gateway/pkg/database"
	"auth-gateway/pkg/logger"
)

// userRepository handles identity rows with PostgreSQL
type userRepository struct {
	db  *database.PostgresDB
	log *logger.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.PostgresDB, log *logger.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

const userColumns = `id, provider, provider_id, email, name, nickname, profile_image, age, preference_json, role, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Provider,
		&user.ProviderID,
		&user.Email,
		&user.Name,
		&user.Nickname,
		&user.ProfileImage,
		&user.Age,
		&user.PreferenceJSON,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByProviderID returns all identities for a (provider, providerId)
// pair, lowest id first
func (r *userRepository) FindByProviderID(ctx context.Context, provider, providerID string) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE provider = $1 AND provider_id = $2
		ORDER BY id ASC
	`

	var users []*domain.User
	err := withRetry(ctx, r.log, func() error {
		rows, err := r.db.Pool.Query(ctx, query, provider, providerID)
		if err != nil {
			return err
		}
		defer rows.Close()

		users = users[:0]
		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find users by provider id: %w", err)
	}

	return users, nil
}

// FindByID returns the identity with the given id, or nil when absent
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	var user *domain.User
	err := withRetry(ctx, r.log, func() error {
		u, err := scanUser(r.db.Pool.QueryRow(ctx, query, id))
		if err == pgx.ErrNoRows {
			user = nil
			return nil
		}
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}

	return user, nil
}

// Save inserts a new identity or updates an existing one
func (r *userRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == 0 {
		return r.insert(ctx, user)
	}
	return r.update(ctx, user)
}

func (r *userRepository) insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (provider, provider_id, email, name, nickname, profile_image, age, preference_json, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	if user.Role == "" {
		user.Role = domain.DefaultRole
	}

	err := r.db.Pool.QueryRow(ctx, query,
		user.Provider,
		user.ProviderID,
		user.Email,
		user.Name,
		user.Nickname,
		user.ProfileImage,
		user.Age,
		user.PreferenceJSON,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

func (r *userRepository) update(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		UPDATE users
		SET email = $2, name = $3, nickname = $4, profile_image = $5,
			age = $6, preference_json = $7, role = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Nickname,
		user.ProfileImage,
		user.Age,
		user.PreferenceJSON,
		user.Role,
	).Scan(&user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteDuplicates removes every row for the pair except keepID
func (r *userRepository) DeleteDuplicates(ctx context.Context, provider, providerID string, keepID int64) (int64, error) {
	query := `
		DELETE FROM users
		WHERE provider = $1 AND provider_id = $2 AND id != $3
	`

	var deleted int64
	err := withRetry(ctx, r.log, func() error {
		result, err := r.db.Pool.Exec(ctx, query, provider, providerID, keepID)
		if err != nil {
			return err
		}
		deleted = result.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicate users: %w", err)
	}

	return deleted, nil
}
