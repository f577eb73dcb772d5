package repositories

import (
	"database/sql"
	"time"

	"github.com/genovesjohn191/dealfi/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id int) error
	List(limit, offset int) ([]*models.User, error)
	GetCount() (int, error)
	GetCountByRole(role string) (int, error)

	UpdatePassword(userID int, passwordHash string) error

	// refresh helpers
	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int) error

	// referral earnings
	AddEarnings(userID int, amount float64) error

	// telegram link for notifications
	UpdateTelegramChat(userID int, chatID int64) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, email, display_name, password_hash, role, onboarded,
	phone, company, bio, location, referred_by,
	reputation, total_deals, available_tokens, locked_tokens,
	successful_stakes, failed_stakes, total_earnings,
	COALESCE(telegram_chat_id, 0),
	refresh_token, refresh_expires_at, refresh_revoked, created_at
`

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (
			email, display_name, password_hash, role, onboarded,
			phone, company, bio, location, referred_by,
			reputation, available_tokens, locked_tokens,
			refresh_token, refresh_expires_at, refresh_revoked
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NULL,NULL,FALSE)
		RETURNING id, created_at
	`
	return r.DB.QueryRow(q,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.Role,
		user.Onboarded,
		user.Phone,
		user.Company,
		user.Bio,
		user.Location,
		user.ReferredBy,
		user.Reputation,
		user.AvailableTokens,
		user.LockedTokens,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	row := r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	row := r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

func (r *userRepository) Update(user *models.User) error {
	const q = `
		UPDATE users SET
			email=$1, display_name=$2, role=$3, onboarded=$4,
			phone=$5, company=$6, bio=$7, location=$8,
			reputation=$9, total_deals=$10, successful_stakes=$11, failed_stakes=$12
		WHERE id=$13
	`
	_, err := r.DB.Exec(q,
		user.Email, user.DisplayName, user.Role, user.Onboarded,
		user.Phone, user.Company, user.Bio, user.Location,
		user.Reputation, user.TotalDeals, user.SuccessfulStakes, user.FailedStakes,
		user.ID,
	)
	return err
}

func (r *userRepository) UpdatePassword(userID int, passwordHash string) error {
	_, err := r.DB.Exec(`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	return err
}

func (r *userRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *userRepository) List(limit, offset int) ([]*models.User, error) {
	rows, err := r.DB.Query(`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *userRepository) GetCount() (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func (r *userRepository) GetCountByRole(role string) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count)
	return count, err
}

func (r *userRepository) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE id=$3
	`
	_, err := r.DB.Exec(q, token, expiresAt, userID)
	return err
}

// RotateRefresh swaps a valid refresh token for a new one atomically and
// returns the owning user; an already-rotated or revoked token matches no row.
func (r *userRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2
		WHERE refresh_token=$3 AND NOT refresh_revoked AND refresh_expires_at > NOW()
		RETURNING ` + userColumns
	return scanUser(r.DB.QueryRow(q, newToken, newExpiresAt, oldToken))
}

func (r *userRepository) ClearRefresh(userID int) error {
	_, err := r.DB.Exec(`UPDATE users SET refresh_token=NULL, refresh_expires_at=NULL WHERE id=$1`, userID)
	return err
}

func (r *userRepository) AddEarnings(userID int, amount float64) error {
	_, err := r.DB.Exec(`UPDATE users SET total_earnings = total_earnings + $1 WHERE id = $2`, amount, userID)
	return err
}

func (r *userRepository) UpdateTelegramChat(userID int, chatID int64) error {
	_, err := r.DB.Exec(`UPDATE users SET telegram_chat_id = $1 WHERE id = $2`, chatID, userID)
	return err
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role, &u.Onboarded,
		&u.Phone, &u.Company, &u.Bio, &u.Location, &u.ReferredBy,
		&u.Reputation, &u.TotalDeals, &u.AvailableTokens, &u.LockedTokens,
		&u.SuccessfulStakes, &u.FailedStakes, &u.TotalEarnings,
		&u.TelegramChatID,
		&u.RefreshToken, &u.RefreshExpiresAt, &u.RefreshRevoked, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
