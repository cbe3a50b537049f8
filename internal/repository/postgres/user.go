package postgres

import (
	"context"
	"database/sql"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type rowScanner interface {
	Scan(dest ...any) error
}

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, refresh_token, address, phone, avatar_url, push_token, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.RefreshToken, &u.Address, &u.Phone, &u.AvatarURL, &u.PushToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	logger.EnterMethod("userRepository.Create", "email", u.Email)

	query := `INSERT INTO users (name, email, password_hash, role, address, phone, avatar_url, created_at, updated_at) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	logger.DatabaseCall("INSERT", "users", "email", u.Email)
	err := r.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Role, u.Address, u.Phone, u.AvatarURL, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	logger.DatabaseResult("INSERT", 1, err, "userID", u.ID)
	if err != nil {
		err = mapUniqueViolation(err)
		logger.ExitMethodWithError("userRepository.Create", err, "email", u.Email)
		return err
	}

	logger.ExitMethod("userRepository.Create", "userID", u.ID)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET name=$1, address=$2, phone=$3, avatar_url=$4, push_token=$5, updated_at=$6 WHERE id=$7`
	u.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, u.Name, u.Address, u.Phone, u.AvatarURL, u.PushToken, u.UpdatedAt, u.ID)
	return err
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int32, passwordHash string) error {
	query := `UPDATE users SET password_hash=$1, updated_at=$2 WHERE id=$3`
	_, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id)
	return err
}

func (r *userRepository) UpdateRefreshToken(ctx context.Context, id int32, token string) error {
	query := `UPDATE users SET refresh_token=$1 WHERE id=$2`
	_, err := r.db.ExecContext(ctx, query, token, id)
	return err
}

func (r *userRepository) UpdateRole(ctx context.Context, id int32, role domain.UserRole) error {
	query := `UPDATE users SET role=$1, updated_at=$2 WHERE id=$3`
	result, err := r.db.ExecContext(ctx, query, role, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, page, pageSize int32) ([]domain.User, int32, error) {
	limit, offset := pageOffset(page, pageSize)

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, count, rows.Err()
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'admin' ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *u)
	}
	return admins, rows.Err()
}
