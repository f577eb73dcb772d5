package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"github.com/genovesjohn191/dealfi/internal/models"
)

var (
	// ErrVersionConflict means the lead changed between read and write.
	// Callers re-read and retry or surface a conflict.
	ErrVersionConflict = errors.New("lead version conflict")

	// ErrInsufficientTokens aborts a staked creation before anything is written.
	ErrInsufficientTokens = errors.New("insufficient available tokens")
)

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &LeadRepository{db: db}
}

const leadColumns = `
	id, first_name, last_name, email, phone, address, notes,
	types, stages, status, birddog_id, folder_id,
	assigned_agent_id, assigned_lender_id, assigned_appraiser_id, assigned_inspector_id,
	needs_lender, needs_appraiser, needs_inspector, is_cash_deal,
	value, commission, confidence_stake, birddog_reputation,
	deals_closed_score, total_deals_value, created_at, updated_at, version
`

// Create inserts a lead without a stake.
func (r *LeadRepository) Create(lead *models.Lead) error {
	return insertLead(r.db, lead)
}

// CreateWithStake locks tokens on the birddog's balance and inserts the lead
// in one transaction: either both writes land or neither does.
func (r *LeadRepository) CreateWithStake(lead *models.Lead, amount int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE users
		SET available_tokens = available_tokens - $1,
		    locked_tokens    = locked_tokens + $1
		WHERE id = $2 AND available_tokens >= $1
	`, amount, lead.BirddogID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientTokens
	}

	if err := insertLead(tx, lead); err != nil {
		return err
	}
	return tx.Commit()
}

type sqlRunner interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func insertLead(q sqlRunner, lead *models.Lead) error {
	stages, err := json.Marshal(lead.Stages)
	if err != nil {
		return err
	}
	stake, err := marshalStake(lead.ConfidenceStake)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO leads (
			first_name, last_name, email, phone, address, notes,
			types, stages, status, birddog_id, folder_id,
			assigned_agent_id, assigned_lender_id, assigned_appraiser_id, assigned_inspector_id,
			needs_lender, needs_appraiser, needs_inspector, is_cash_deal,
			value, commission, confidence_stake, birddog_reputation,
			deals_closed_score, total_deals_value, created_at, updated_at, version
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$26,1)
		RETURNING id, version
	`
	return q.QueryRow(query,
		lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.Address, lead.Notes,
		pq.Array(typesToStrings(lead.Types)), stages, lead.Status, lead.BirddogID, lead.FolderID,
		lead.AssignedAgentID, lead.AssignedLenderID, lead.AssignedAppraiserID, lead.AssignedInspectorID,
		lead.NeedsLender, lead.NeedsAppraiser, lead.NeedsInspector, lead.IsCashDeal,
		lead.Value, lead.Commission, stake, lead.BirddogReputation,
		lead.DealsClosedScore, lead.TotalDealsValue, lead.CreatedAt,
	).Scan(&lead.ID, &lead.Version)
}

func (r *LeadRepository) GetByID(id int) (*models.Lead, error) {
	row := r.db.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return lead, err
}

// UpdateGuarded replaces a lead's mutable state iff the stored version still
// matches lead.Version (optimistic compare-and-swap). On success the version
// is bumped in place.
func (r *LeadRepository) UpdateGuarded(lead *models.Lead) error {
	stages, err := json.Marshal(lead.Stages)
	if err != nil {
		return err
	}
	stake, err := marshalStake(lead.ConfidenceStake)
	if err != nil {
		return err
	}
	const query = `
		UPDATE leads SET
			first_name=$1, last_name=$2, email=$3, phone=$4, address=$5, notes=$6,
			stages=$7, status=$8, folder_id=$9,
			assigned_agent_id=$10, assigned_lender_id=$11,
			assigned_appraiser_id=$12, assigned_inspector_id=$13,
			needs_lender=$14, needs_appraiser=$15, needs_inspector=$16,
			value=$17, commission=$18, confidence_stake=$19,
			deals_closed_score=$20, total_deals_value=$21,
			updated_at=NOW(), version=version+1
		WHERE id=$22 AND version=$23
	`
	res, err := r.db.Exec(query,
		lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.Address, lead.Notes,
		stages, lead.Status, lead.FolderID,
		lead.AssignedAgentID, lead.AssignedLenderID,
		lead.AssignedAppraiserID, lead.AssignedInspectorID,
		lead.NeedsLender, lead.NeedsAppraiser, lead.NeedsInspector,
		lead.Value, lead.Commission, stake,
		lead.DealsClosedScore, lead.TotalDealsValue,
		lead.ID, lead.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	lead.Version++
	return nil
}

// SettleStake unlocks tokens on the birddog's balance (returning part or all
// of them) and stores the updated stake record, in one transaction.
func (r *LeadRepository) SettleStake(lead *models.Lead, unlock, returned int64) error {
	stake, err := marshalStake(lead.ConfidenceStake)
	if err != nil {
		return err
	}
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE users
		SET locked_tokens    = locked_tokens - $1,
		    available_tokens = available_tokens + $2
		WHERE id = $3
	`, unlock, returned, lead.BirddogID); err != nil {
		return err
	}
	res, err := tx.Exec(`
		UPDATE leads SET confidence_stake=$1, updated_at=NOW(), version=version+1
		WHERE id=$2 AND version=$3
	`, stake, lead.ID, lead.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	lead.Version++
	return nil
}

// LeadFilter narrows listings for dashboards and reports. Zero values mean
// "any".
type LeadFilter struct {
	Status           models.LeadStatus
	BirddogID        int
	Type             models.LeadType
	NeedsLender      bool // lender queue: flagged and nobody assigned
	NeedsAppraiser   bool
	NeedsInspector   bool
	UnassignedAgent  bool // agent queue: no assigned agent yet
	AssignedAgentID  int
	AssignedLenderID int
	SortBy           string
	Order            string
	Limit            int
	Offset           int
}

func (r *LeadRepository) Filter(f LeadFilter) ([]*models.Lead, error) {
	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowed := map[string]bool{"created_at": true, "status": true, "birddog_id": true, "updated_at": true}
	if !allowed[sortBy] {
		sortBy = "created_at"
	}
	order := f.Order
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := []interface{}{}
	i := 1

	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", i)
		args = append(args, f.Status)
		i++
	}
	if f.BirddogID > 0 {
		query += fmt.Sprintf(" AND birddog_id = $%d", i)
		args = append(args, f.BirddogID)
		i++
	}
	if f.Type != "" {
		query += fmt.Sprintf(" AND $%d = ANY(types)", i)
		args = append(args, string(f.Type))
		i++
	}
	if f.NeedsLender {
		query += " AND needs_lender AND assigned_lender_id IS NULL"
	}
	if f.NeedsAppraiser {
		query += " AND needs_appraiser AND assigned_appraiser_id IS NULL"
	}
	if f.NeedsInspector {
		query += " AND needs_inspector AND assigned_inspector_id IS NULL"
	}
	if f.UnassignedAgent {
		query += " AND assigned_agent_id IS NULL"
	}
	if f.AssignedAgentID > 0 {
		query += fmt.Sprintf(" AND assigned_agent_id = $%d", i)
		args = append(args, f.AssignedAgentID)
		i++
	}
	if f.AssignedLenderID > 0 {
		query += fmt.Sprintf(" AND assigned_lender_id = $%d", i)
		args = append(args, f.AssignedLenderID)
		i++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d", sortBy, order, i, i+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

func (r *LeadRepository) CountByStatus(status models.LeadStatus) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM leads WHERE status = $1`, status).Scan(&count)
	return count, err
}

func (r *LeadRepository) CountByType(t models.LeadType) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM leads WHERE $1 = ANY(types)`, string(t)).Scan(&count)
	return count, err
}

func (r *LeadRepository) TotalClosedValue() (float64, error) {
	var total float64
	err := r.db.QueryRow(`SELECT COALESCE(SUM(value),0) FROM leads WHERE status = 'closed'`).Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	lead := &models.Lead{}
	var (
		types      pq.StringArray
		stages     []byte
		stake      []byte
		notes      sql.NullString
		value      sql.NullFloat64
		commission sql.NullFloat64
	)
	if err := row.Scan(
		&lead.ID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone, &lead.Address, &notes,
		&types, &stages, &lead.Status, &lead.BirddogID, &lead.FolderID,
		&lead.AssignedAgentID, &lead.AssignedLenderID, &lead.AssignedAppraiserID, &lead.AssignedInspectorID,
		&lead.NeedsLender, &lead.NeedsAppraiser, &lead.NeedsInspector, &lead.IsCashDeal,
		&value, &commission, &stake, &lead.BirddogReputation,
		&lead.DealsClosedScore, &lead.TotalDealsValue, &lead.CreatedAt, &lead.UpdatedAt, &lead.Version,
	); err != nil {
		return nil, err
	}
	lead.Notes = notes.String
	if value.Valid {
		lead.Value = &value.Float64
	}
	if commission.Valid {
		lead.Commission = &commission.Float64
	}
	lead.Types = stringsToTypes(types)
	if err := json.Unmarshal(stages, &lead.Stages); err != nil {
		return nil, fmt.Errorf("decode stages for lead %d: %w", lead.ID, err)
	}
	if len(stake) > 0 {
		var cs models.ConfidenceStake
		if err := json.Unmarshal(stake, &cs); err != nil {
			return nil, fmt.Errorf("decode stake for lead %d: %w", lead.ID, err)
		}
		lead.ConfidenceStake = &cs
	}
	return lead, nil
}

func marshalStake(cs *models.ConfidenceStake) ([]byte, error) {
	if cs == nil {
		return nil, nil
	}
	return json.Marshal(cs)
}

func typesToStrings(ts []models.LeadType) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}

func stringsToTypes(ss []string) []models.LeadType {
	out := make([]models.LeadType, len(ss))
	for i, s := range ss {
		out[i] = models.LeadType(s)
	}
	return out
}
