package repositories

import (
	"database/sql"

	"github.com/genovesjohn191/dealfi/internal/models"
)

type ReferralRepository interface {
	CreateInvite(inv *models.ReferralInvite) error
	GetInviteByID(id int) (*models.ReferralInvite, error)
	GetInviteByToken(token string) (*models.ReferralInvite, error)
	ListByReferrer(referrerID int) ([]*models.ReferralInvite, error)
	TouchReminder(id int) error
	MarkAccepted(id, userID int) error
	DeleteInvite(id int) error

	// ReferrerChain walks referred_by upward from userID, nearest first,
	// at most maxDepth entries.
	ReferrerChain(userID, maxDepth int) ([]int, error)
}

type referralRepository struct {
	DB *sql.DB
}

func NewReferralRepository(db *sql.DB) ReferralRepository {
	return &referralRepository{DB: db}
}

const inviteColumns = `
	id, referrer_id, email, first_name, role, token, status,
	last_reminder_sent, accepted_user_id, created_at
`

func (r *referralRepository) CreateInvite(inv *models.ReferralInvite) error {
	const q = `
		INSERT INTO referral_invites (referrer_id, email, first_name, role, token, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.DB.QueryRow(q, inv.ReferrerID, inv.Email, inv.FirstName, inv.Role, inv.Token, inv.Status).
		Scan(&inv.ID, &inv.CreatedAt)
}

func (r *referralRepository) GetInviteByID(id int) (*models.ReferralInvite, error) {
	return scanInvite(r.DB.QueryRow(`SELECT `+inviteColumns+` FROM referral_invites WHERE id = $1`, id))
}

func (r *referralRepository) GetInviteByToken(token string) (*models.ReferralInvite, error) {
	return scanInvite(r.DB.QueryRow(`SELECT `+inviteColumns+` FROM referral_invites WHERE token = $1`, token))
}

func (r *referralRepository) ListByReferrer(referrerID int) ([]*models.ReferralInvite, error) {
	rows, err := r.DB.Query(`SELECT `+inviteColumns+` FROM referral_invites WHERE referrer_id = $1 ORDER BY created_at DESC`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ReferralInvite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *referralRepository) TouchReminder(id int) error {
	_, err := r.DB.Exec(`UPDATE referral_invites SET last_reminder_sent = NOW() WHERE id = $1`, id)
	return err
}

func (r *referralRepository) MarkAccepted(id, userID int) error {
	_, err := r.DB.Exec(`
		UPDATE referral_invites SET status = 'accepted', accepted_user_id = $1
		WHERE id = $2
	`, userID, id)
	return err
}

func (r *referralRepository) DeleteInvite(id int) error {
	_, err := r.DB.Exec(`DELETE FROM referral_invites WHERE id = $1`, id)
	return err
}

func (r *referralRepository) ReferrerChain(userID, maxDepth int) ([]int, error) {
	const q = `
		WITH RECURSIVE chain AS (
			SELECT referred_by, 1 AS depth FROM users WHERE id = $1
			UNION ALL
			SELECT u.referred_by, c.depth + 1
			FROM users u JOIN chain c ON u.id = c.referred_by
			WHERE c.depth < $2
		)
		SELECT referred_by FROM chain WHERE referred_by IS NOT NULL ORDER BY depth
	`
	rows, err := r.DB.Query(q, userID, maxDepth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanInvite(row rowScanner) (*models.ReferralInvite, error) {
	inv := &models.ReferralInvite{}
	err := row.Scan(
		&inv.ID, &inv.ReferrerID, &inv.Email, &inv.FirstName, &inv.Role, &inv.Token, &inv.Status,
		&inv.LastReminderSent, &inv.AcceptedUserID, &inv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}
