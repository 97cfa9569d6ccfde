package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/google/uuid"
)

// rowScanner abstracts *sql.Row and *sql.Rows so the scan helpers work with
// both single-row and multi-row queries.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const territorySelect = `
	SELECT id, nation_id, world, center_x, center_y, center_z, size,
	       wall_status, wall_expires_at, created_at
	FROM nation_territories`

const buildingSelect = `
	SELECT id, territory_id, type, state, direction, world,
	       base_x, base_y, base_z, level, build_complete_at, created_at
	FROM nation_buildings`

func scanNation(row *sql.Row) (*domain.Nation, error) {
	n, err := scanNationRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func scanNationRow(sc rowScanner) (*domain.Nation, error) {
	var n domain.Nation
	var ownerStr string
	if err := sc.Scan(&n.ID, &n.Name, &ownerStr, &n.Level, &n.Exp,
		&n.BankBalance, &n.Score, &n.CreatedAt); err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(ownerStr)
	if err != nil {
		return nil, fmt.Errorf("parsing owner uuid: %w", err)
	}
	n.OwnerUUID = owner
	return &n, nil
}

func collectTerritories(rows *sql.Rows) ([]domain.Territory, error) {
	var territories []domain.Territory
	for rows.Next() {
		var t domain.Territory
		var statusStr string
		var expires sql.NullTime
		if err := rows.Scan(&t.ID, &t.NationID, &t.World, &t.CenterX, &t.CenterY,
			&t.CenterZ, &t.Size, &statusStr, &expires, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.WallStatus = domain.WallStatus(statusStr)
		t.WallExpiresAt = nullableTime(expires)
		territories = append(territories, t)
	}
	return territories, rows.Err()
}

func collectBuildings(rows *sql.Rows) ([]domain.Building, error) {
	var buildings []domain.Building
	for rows.Next() {
		var b domain.Building
		var typeStr, stateStr, dirStr string
		var complete sql.NullTime
		if err := rows.Scan(&b.ID, &b.TerritoryID, &typeStr, &stateStr, &dirStr,
			&b.World, &b.BaseX, &b.BaseY, &b.BaseZ, &b.Level, &complete, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Type = domain.BuildingType(typeStr)
		b.State = domain.BuildingState(stateStr)
		b.Direction = domain.Direction(dirStr)
		b.BuildCompleteAt = nullableTime(complete)
		buildings = append(buildings, b)
	}
	return buildings, rows.Err()
}

func nullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
