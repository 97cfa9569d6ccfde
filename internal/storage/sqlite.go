package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// formatTimestamp converts time.Time to SQLite-compatible UTC ISO8601 string.
// The Z suffix ensures the Go sqlite driver parses it back as UTC.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// formatDate converts a time.Time to the date key used by daily quests.
func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

//go:embed schema.sql
var schema string

// Store provides database access
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	// This also serializes every transaction, which is what keeps the
	// claim-distance and building-spacing read-then-write checks safe.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a single transaction: commit on nil return, roll back
// on any error. This is the only mutation primitive; every write repository
// method takes the *sql.Tx it provides.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// --- Nation methods ---

// InsertNation inserts a nation row and returns its id
func (s *Store) InsertNation(tx *sql.Tx, n *domain.Nation) (int64, error) {
	result, err := tx.Exec(`
		INSERT INTO nations (name, owner_uuid, level, exp, bank_balance, score)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.Name, n.OwnerUUID.String(), n.Level, n.Exp, n.BankBalance, n.Score)
	if err != nil {
		return 0, fmt.Errorf("inserting nation: %w", err)
	}
	return result.LastInsertId()
}

// GetNationByID returns a nation by id, or nil when absent
func (s *Store) GetNationByID(ctx context.Context, id int64) (*domain.Nation, error) {
	return scanNation(s.db.QueryRowContext(ctx, `
		SELECT id, name, owner_uuid, level, exp, bank_balance, score, created_at
		FROM nations WHERE id = ?
	`, id))
}

// GetNationByName returns a nation by its unique name, or nil when absent
func (s *Store) GetNationByName(ctx context.Context, name string) (*domain.Nation, error) {
	return scanNation(s.db.QueryRowContext(ctx, `
		SELECT id, name, owner_uuid, level, exp, bank_balance, score, created_at
		FROM nations WHERE name = ?
	`, name))
}

// ListNations returns all nations ordered by id
func (s *Store) ListNations(ctx context.Context) ([]domain.Nation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, owner_uuid, level, exp, bank_balance, score, created_at
		FROM nations ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nations []domain.Nation
	for rows.Next() {
		n, err := scanNationRow(rows)
		if err != nil {
			return nil, err
		}
		nations = append(nations, *n)
	}
	return nations, rows.Err()
}

// DeleteNation removes a nation row
func (s *Store) DeleteNation(tx *sql.Tx, nationID int64) error {
	_, err := tx.Exec("DELETE FROM nations WHERE id = ?", nationID)
	return err
}

// AddExp adds experience to a nation
func (s *Store) AddExp(tx *sql.Tx, nationID int64, amount int64) error {
	_, err := tx.Exec("UPDATE nations SET exp = exp + ? WHERE id = ?", amount, nationID)
	return err
}

// GetBankBalanceTx reads the treasury balance inside a transaction
func (s *Store) GetBankBalanceTx(tx *sql.Tx, nationID int64) (int64, error) {
	var balance int64
	err := tx.QueryRow("SELECT bank_balance FROM nations WHERE id = ?", nationID).Scan(&balance)
	return balance, err
}

// AddBankBalance adjusts the treasury balance by amount (may be negative)
func (s *Store) AddBankBalance(tx *sql.Tx, nationID int64, amount int64) error {
	_, err := tx.Exec("UPDATE nations SET bank_balance = bank_balance + ? WHERE id = ?", amount, nationID)
	return err
}

// LevelUpNation advances a nation one level, paying the configured costs
func (s *Store) LevelUpNation(tx *sql.Tx, nationID int64, expCost, moneyCost int64) error {
	_, err := tx.Exec(`
		UPDATE nations SET level = level + 1, exp = exp - ?, bank_balance = bank_balance - ?
		WHERE id = ?
	`, expCost, moneyCost, nationID)
	return err
}

// --- Settings methods ---

// InsertDefaultSettings creates the singleton settings row for a new nation
func (s *Store) InsertDefaultSettings(tx *sql.Tx, nationID int64) error {
	_, err := tx.Exec("INSERT INTO nation_settings (nation_id) VALUES (?)", nationID)
	return err
}

// GetSettings returns a nation's settings row, or nil when absent
func (s *Store) GetSettings(ctx context.Context, nationID int64) (*domain.NationSettings, error) {
	var st domain.NationSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT nation_id, pvp_enabled, invite_lock, chat_default
		FROM nation_settings WHERE nation_id = ?
	`, nationID).Scan(&st.NationID, &st.PvpEnabled, &st.InviteLock, &st.ChatDefault)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// DeleteSettingsByNation removes a nation's settings row
func (s *Store) DeleteSettingsByNation(tx *sql.Tx, nationID int64) error {
	_, err := tx.Exec("DELETE FROM nation_settings WHERE nation_id = ?", nationID)
	return err
}

// --- Member methods ---

// InsertMember adds a membership row
func (s *Store) InsertMember(tx *sql.Tx, nationID int64, player uuid.UUID, role domain.Role) error {
	_, err := tx.Exec(`
		INSERT INTO nation_members (nation_id, player_uuid, role) VALUES (?, ?, ?)
	`, nationID, player.String(), string(role))
	if err != nil {
		return fmt.Errorf("inserting member: %w", err)
	}
	return nil
}

// GetMemberByPlayer returns a player's membership row, or nil when absent
func (s *Store) GetMemberByPlayer(ctx context.Context, player uuid.UUID) (*domain.Member, error) {
	var m domain.Member
	var playerStr string
	var roleStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT nation_id, player_uuid, role, joined_at
		FROM nation_members WHERE player_uuid = ?
	`, player.String()).Scan(&m.NationID, &playerStr, &roleStr, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.PlayerUUID, err = uuid.Parse(playerStr)
	if err != nil {
		return nil, fmt.Errorf("parsing member uuid: %w", err)
	}
	m.Role = domain.Role(roleStr)
	return &m, nil
}

// CountMembers returns the member count of a nation
func (s *Store) CountMembers(ctx context.Context, nationID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM nation_members WHERE nation_id = ?", nationID).Scan(&count)
	return count, err
}

// ListMemberUUIDs returns every member of a nation
func (s *Store) ListMemberUUIDs(ctx context.Context, nationID int64) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT player_uuid FROM nation_members WHERE nation_id = ?", nationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing member uuid: %w", err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// DeleteMember removes one membership row
func (s *Store) DeleteMember(tx *sql.Tx, nationID int64, player uuid.UUID) error {
	_, err := tx.Exec(
		"DELETE FROM nation_members WHERE nation_id = ? AND player_uuid = ?",
		nationID, player.String())
	return err
}

// DeleteMembersByNation removes every membership row of a nation
func (s *Store) DeleteMembersByNation(tx *sql.Tx, nationID int64) error {
	_, err := tx.Exec("DELETE FROM nation_members WHERE nation_id = ?", nationID)
	return err
}

// --- Territory methods ---

// InsertTerritory inserts a claim and returns its id
func (s *Store) InsertTerritory(tx *sql.Tx, t *domain.Territory) (int64, error) {
	var expires interface{}
	if t.WallExpiresAt != nil {
		expires = formatTimestamp(*t.WallExpiresAt)
	}
	result, err := tx.Exec(`
		INSERT INTO nation_territories
			(nation_id, world, center_x, center_y, center_z, size, wall_status, wall_expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.NationID, t.World, t.CenterX, t.CenterY, t.CenterZ, t.Size, string(t.WallStatus), expires)
	if err != nil {
		return 0, fmt.Errorf("inserting territory: %w", err)
	}
	return result.LastInsertId()
}

// GetTerritoryByID returns a territory by id, or nil when absent
func (s *Store) GetTerritoryByID(ctx context.Context, id int64) (*domain.Territory, error) {
	rows, err := s.db.QueryContext(ctx, territorySelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	territories, err := collectTerritories(rows)
	if err != nil || len(territories) == 0 {
		return nil, err
	}
	return &territories[0], nil
}

// ListTerritoriesByNation returns a nation's claims ordered by id
func (s *Store) ListTerritoriesByNation(ctx context.Context, nationID int64) ([]domain.Territory, error) {
	rows, err := s.db.QueryContext(ctx,
		territorySelect+" WHERE nation_id = ? ORDER BY id", nationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTerritories(rows)
}

// ListAllTerritoriesTx returns every claim in the store, inside the caller's
// transaction so the claim-distance scan and the claim insert share one read
// window. The scan is O(total territories) by design.
func (s *Store) ListAllTerritoriesTx(tx *sql.Tx) ([]domain.Territory, error) {
	rows, err := tx.Query(territorySelect)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTerritories(rows)
}

// ListPendingExpired returns PENDING claims whose expiry has passed
func (s *Store) ListPendingExpired(ctx context.Context, now time.Time) ([]domain.Territory, error) {
	rows, err := s.db.QueryContext(ctx,
		territorySelect+" WHERE wall_status = ? AND wall_expires_at IS NOT NULL AND wall_expires_at < ?",
		string(domain.WallPending), formatTimestamp(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTerritories(rows)
}

// CountTerritoriesByNation returns how many claims a nation holds
func (s *Store) CountTerritoriesByNation(ctx context.Context, nationID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM nation_territories WHERE nation_id = ?", nationID).Scan(&count)
	return count, err
}

// CountTerritoriesByNationTx is the transactional variant used by the expiry
// sweep when deciding whether a nation just lost its last claim
func (s *Store) CountTerritoriesByNationTx(tx *sql.Tx, nationID int64) (int, error) {
	var count int
	err := tx.QueryRow(
		"SELECT COUNT(*) FROM nation_territories WHERE nation_id = ?", nationID).Scan(&count)
	return count, err
}

// HasBuiltWall reports whether a nation has at least one BUILT territory
func (s *Store) HasBuiltWall(ctx context.Context, nationID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM nation_territories WHERE nation_id = ? AND wall_status = ? LIMIT 1",
		nationID, string(domain.WallBuilt)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// UpdateWallStatus sets the wall status and expiry of a territory
func (s *Store) UpdateWallStatus(tx *sql.Tx, territoryID int64, status domain.WallStatus, expiresAt *time.Time) error {
	var expires interface{}
	if expiresAt != nil {
		expires = formatTimestamp(*expiresAt)
	}
	_, err := tx.Exec(
		"UPDATE nation_territories SET wall_status = ?, wall_expires_at = ? WHERE id = ?",
		string(status), expires, territoryID)
	return err
}

// DeleteTerritory removes one claim
func (s *Store) DeleteTerritory(tx *sql.Tx, territoryID int64) error {
	_, err := tx.Exec("DELETE FROM nation_territories WHERE id = ?", territoryID)
	return err
}

// --- Building methods ---

// InsertBuilding inserts a construction row and returns its id
func (s *Store) InsertBuilding(tx *sql.Tx, b *domain.Building) (int64, error) {
	var complete interface{}
	if b.BuildCompleteAt != nil {
		complete = formatTimestamp(*b.BuildCompleteAt)
	}
	result, err := tx.Exec(`
		INSERT INTO nation_buildings
			(territory_id, type, state, direction, world, base_x, base_y, base_z, level, build_complete_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.TerritoryID, string(b.Type), string(b.State), string(b.Direction),
		b.World, b.BaseX, b.BaseY, b.BaseZ, b.Level, complete)
	if err != nil {
		return 0, fmt.Errorf("inserting building: %w", err)
	}
	return result.LastInsertId()
}

// ListBuildingsByTerritory returns every building in a territory
func (s *Store) ListBuildingsByTerritory(ctx context.Context, territoryID int64) ([]domain.Building, error) {
	rows, err := s.db.QueryContext(ctx,
		buildingSelect+" WHERE territory_id = ? ORDER BY id", territoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBuildings(rows)
}

// ListDueBuildings returns BUILDING rows whose completion timestamp passed
func (s *Store) ListDueBuildings(ctx context.Context, now time.Time) ([]domain.Building, error) {
	rows, err := s.db.QueryContext(ctx,
		buildingSelect+" WHERE state = ? AND build_complete_at IS NOT NULL AND build_complete_at <= ?",
		string(domain.BuildingInProgress), formatTimestamp(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBuildings(rows)
}

// UpdateBuildingState sets the state and completion timestamp of a building
func (s *Store) UpdateBuildingState(tx *sql.Tx, buildingID int64, state domain.BuildingState, completeAt *time.Time) error {
	var complete interface{}
	if completeAt != nil {
		complete = formatTimestamp(*completeAt)
	}
	_, err := tx.Exec(
		"UPDATE nation_buildings SET state = ?, build_complete_at = ? WHERE id = ?",
		string(state), complete, buildingID)
	return err
}

// CountPlacedByNationAndType counts non-destroyed buildings of a type across
// every territory of a nation
func (s *Store) CountPlacedByNationAndType(ctx context.Context, nationID int64, t domain.BuildingType) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM nation_buildings b
		JOIN nation_territories t ON t.id = b.territory_id
		WHERE t.nation_id = ? AND b.type = ? AND b.state != ?
	`, nationID, string(t), string(domain.BuildingDestroyed)).Scan(&count)
	return count, err
}

// CountActiveByNationAndType counts ACTIVE buildings of a type for a nation
func (s *Store) CountActiveByNationAndType(ctx context.Context, nationID int64, t domain.BuildingType) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM nation_buildings b
		JOIN nation_territories t ON t.id = b.territory_id
		WHERE t.nation_id = ? AND b.type = ? AND b.state = ?
	`, nationID, string(t), string(domain.BuildingActive)).Scan(&count)
	return count, err
}

// --- Bank history methods ---

// InsertBankEntry appends a treasury history row
func (s *Store) InsertBankEntry(tx *sql.Tx, nationID int64, action domain.BankAction, amount int64, actor uuid.UUID) error {
	_, err := tx.Exec(`
		INSERT INTO nation_bank_history (nation_id, action, amount, actor_uuid)
		VALUES (?, ?, ?, ?)
	`, nationID, string(action), amount, actor.String())
	return err
}

// ListBankHistory returns the most recent treasury entries, newest first
func (s *Store) ListBankHistory(ctx context.Context, nationID int64, limit int) ([]domain.BankEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nation_id, action, amount, actor_uuid, created_at
		FROM nation_bank_history WHERE nation_id = ?
		ORDER BY id DESC LIMIT ?
	`, nationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.BankEntry
	for rows.Next() {
		var e domain.BankEntry
		var actionStr, actorStr string
		if err := rows.Scan(&e.ID, &e.NationID, &actionStr, &e.Amount, &actorStr, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = domain.BankAction(actionStr)
		e.ActorUUID, err = uuid.Parse(actorStr)
		if err != nil {
			return nil, fmt.Errorf("parsing actor uuid: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Present claim methods ---

// GetLastPresentClaim returns the last claim instant, or nil when never claimed
func (s *Store) GetLastPresentClaim(ctx context.Context, nationID int64) (*time.Time, error) {
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT last_claim_at FROM nation_present_claims WHERE nation_id = ?",
		nationID).Scan(&last)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time
	return &t, nil
}

// UpsertLastPresentClaim records a present claim instant
func (s *Store) UpsertLastPresentClaim(tx *sql.Tx, nationID int64, at time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO nation_present_claims (nation_id, last_claim_at) VALUES (?, ?)
		ON CONFLICT(nation_id) DO UPDATE SET last_claim_at = excluded.last_claim_at
	`, nationID, formatTimestamp(at))
	return err
}

// DeletePresentClaim removes a nation's claim row
func (s *Store) DeletePresentClaim(tx *sql.Tx, nationID int64) error {
	_, err := tx.Exec("DELETE FROM nation_present_claims WHERE nation_id = ?", nationID)
	return err
}

// --- Daily quest methods ---

// ListQuestsByNationAndDate returns a nation's quests for a date
func (s *Store) ListQuestsByNationAndDate(ctx context.Context, nationID int64, date time.Time) ([]domain.DailyQuest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nation_id, quest_id, required_amount, progress_amount, completed, quest_date
		FROM nation_daily_quests WHERE nation_id = ? AND quest_date = ?
		ORDER BY quest_id
	`, nationID, formatDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []domain.DailyQuest
	for rows.Next() {
		var q domain.DailyQuest
		var dateStr string
		if err := rows.Scan(&q.ID, &q.NationID, &q.QuestID, &q.RequiredAmount, &q.ProgressAmount, &q.Completed, &dateStr); err != nil {
			return nil, err
		}
		q.QuestDate, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing quest date: %w", err)
		}
		quests = append(quests, q)
	}
	return quests, rows.Err()
}

// InsertQuest inserts a daily quest row
func (s *Store) InsertQuest(tx *sql.Tx, q *domain.DailyQuest) (int64, error) {
	result, err := tx.Exec(`
		INSERT INTO nation_daily_quests (nation_id, quest_id, required_amount, progress_amount, completed, quest_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, q.NationID, q.QuestID, q.RequiredAmount, q.ProgressAmount, q.Completed, formatDate(q.QuestDate))
	if err != nil {
		return 0, fmt.Errorf("inserting quest: %w", err)
	}
	return result.LastInsertId()
}

// UpdateQuestProgress sets progress and completion for one quest
func (s *Store) UpdateQuestProgress(tx *sql.Tx, nationID int64, questID int, date time.Time, progress int, completed bool) error {
	_, err := tx.Exec(`
		UPDATE nation_daily_quests SET progress_amount = ?, completed = ?
		WHERE nation_id = ? AND quest_id = ? AND quest_date = ?
	`, progress, completed, nationID, questID, formatDate(date))
	return err
}

// DeleteQuestsByNationAndDate clears a nation's quests for a date
func (s *Store) DeleteQuestsByNationAndDate(tx *sql.Tx, nationID int64, date time.Time) error {
	_, err := tx.Exec(
		"DELETE FROM nation_daily_quests WHERE nation_id = ? AND quest_date = ?",
		nationID, formatDate(date))
	return err
}

// --- Player settings methods ---

// GetNationChatEnabled returns a player's chat preference; absent rows
// default to false
func (s *Store) GetNationChatEnabled(ctx context.Context, player uuid.UUID) (bool, error) {
	var enabled bool
	err := s.db.QueryRowContext(ctx,
		"SELECT nation_chat_enabled FROM player_settings WHERE player_uuid = ?",
		player.String()).Scan(&enabled)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return enabled, err
}

// SetNationChatEnabled stores a player's chat preference
func (s *Store) SetNationChatEnabled(tx *sql.Tx, player uuid.UUID, enabled bool) error {
	_, err := tx.Exec(`
		INSERT INTO player_settings (player_uuid, nation_chat_enabled) VALUES (?, ?)
		ON CONFLICT(player_uuid) DO UPDATE SET nation_chat_enabled = excluded.nation_chat_enabled
	`, player.String(), enabled)
	return err
}

// --- User methods ---

// CreateUser inserts an operator account
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, is_admin) VALUES (?, ?, ?)
	`, username, passwordHash, isAdmin)
	if err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}
	return result.LastInsertId()
}

// GetUserByUsername returns an operator account, or nil when absent
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, is_admin, created_at
		FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every operator account
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password_hash, is_admin, created_at FROM users ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes an operator account
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	return err
}
