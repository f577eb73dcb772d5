package repositories

import (
	"database/sql"

	"github.com/genovesjohn191/dealfi/internal/models"
)

type FolderRepository interface {
	Create(folder *models.LeadFolder) error
	GetByID(id int) (*models.LeadFolder, error)
	ListByUser(userID int) ([]*models.LeadFolder, error)
	Update(folder *models.LeadFolder) error
	Delete(id int) error
}

type folderRepository struct {
	DB *sql.DB
}

func NewFolderRepository(db *sql.DB) FolderRepository {
	return &folderRepository{DB: db}
}

func (r *folderRepository) Create(folder *models.LeadFolder) error {
	const q = `
		INSERT INTO lead_folders (user_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRow(q, folder.UserID, folder.Name, folder.Color).
		Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)
}

func (r *folderRepository) GetByID(id int) (*models.LeadFolder, error) {
	const q = `SELECT id, user_id, name, color, created_at, updated_at FROM lead_folders WHERE id = $1`
	f := &models.LeadFolder{}
	err := r.DB.QueryRow(q, id).Scan(&f.ID, &f.UserID, &f.Name, &f.Color, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *folderRepository) ListByUser(userID int) ([]*models.LeadFolder, error) {
	const q = `SELECT id, user_id, name, color, created_at, updated_at FROM lead_folders WHERE user_id = $1 ORDER BY name`
	rows, err := r.DB.Query(q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LeadFolder
	for rows.Next() {
		f := &models.LeadFolder{}
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Color, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *folderRepository) Update(folder *models.LeadFolder) error {
	const q = `UPDATE lead_folders SET name=$1, color=$2, updated_at=NOW() WHERE id=$3 AND user_id=$4`
	_, err := r.DB.Exec(q, folder.Name, folder.Color, folder.ID, folder.UserID)
	return err
}

func (r *folderRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM lead_folders WHERE id = $1`, id)
	return err
}
