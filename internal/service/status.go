// Package service implements the domain operations: nation identity and
// membership, land claims and walls, timed construction, war matchmaking,
// and the sibling treasury/level/present/storage/shop/quest services. Every
// operation returns a result struct carrying a Status rather than an error;
// errors are reserved for infrastructure failures.
package service

// Status is the closed set of domain outcomes shared by all services.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"

	// membership and invitations
	StatusAlreadyInNation Status = "ALREADY_IN_NATION"
	StatusNotInNation     Status = "NOT_IN_NATION"
	StatusNameTaken       Status = "NAME_TAKEN"
	StatusNameRequired    Status = "NAME_REQUIRED"
	StatusInvalidName     Status = "INVALID_NAME"
	StatusNotOwner        Status = "NOT_OWNER"
	StatusOwnerOnly       Status = "OWNER_ONLY"
	StatusSelfInvite      Status = "SELF_INVITE"
	StatusTargetInNation  Status = "TARGET_IN_NATION"
	StatusInviteNotFound  Status = "INVITE_NOT_FOUND"
	StatusNationFull      Status = "NATION_FULL"

	// territory and walls
	StatusTooManyTerritories Status = "TOO_MANY_TERRITORIES"
	StatusTooClose           Status = "TOO_CLOSE"
	StatusNotInTerritory     Status = "NOT_IN_TERRITORY"
	StatusNoPendingWall      Status = "NO_PENDING_WALL"
	StatusWallNotBuilt       Status = "WALL_NOT_BUILT"
	StatusStructureMissing   Status = "STRUCTURE_MISSING"

	// buildings
	StatusInvalidY           Status = "INVALID_Y"
	StatusInvalidLocation    Status = "INVALID_LOCATION"
	StatusBuildingInProgress Status = "BUILDING_IN_PROGRESS"
	StatusLevelTooLow        Status = "LEVEL_TOO_LOW"
	StatusLimitReached       Status = "LIMIT_REACHED"
	StatusInvalidType        Status = "INVALID_TYPE"

	// economy and progression
	StatusEconomyUnavailable Status = "ECONOMY_UNAVAILABLE"
	StatusInsufficientFunds  Status = "INSUFFICIENT_FUNDS"
	StatusNoBankBuilding     Status = "NO_BANK_BUILDING"
	StatusNotEnoughExp       Status = "NOT_ENOUGH_EXP"
	StatusNotEnoughMoney     Status = "NOT_ENOUGH_MONEY"
	StatusMaxLevel           Status = "MAX_LEVEL"

	// wars
	StatusAlreadyQueued Status = "ALREADY_QUEUED"
	StatusMatchClosed   Status = "MATCH_CLOSED"

	// presents, storage, shop, quests
	StatusCooldown          Status = "COOLDOWN"
	StatusNoPresentBuilding Status = "NO_PRESENT_BUILDING"
	StatusNoStorageBuilding Status = "NO_STORAGE_BUILDING"
	StatusNoShopBuilding    Status = "NO_SHOP_BUILDING"
	StatusNoQuests          Status = "NO_QUESTS"
	StatusAlreadyCompleted  Status = "ALREADY_COMPLETED"
)

// OK reports whether the status is SUCCESS.
func (s Status) OK() bool {
	return s == StatusSuccess
}
