package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/economy"
	"github.com/M-LunaFarm/NationSystem/internal/notify"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/M-LunaFarm/NationSystem/internal/structure"
	"github.com/M-LunaFarm/NationSystem/internal/world"
)

// testEnv wires the full service stack against a temp store, a live gateway
// and an embedded message bus, mirroring the production wiring.
type testEnv struct {
	cfg         *config.Config
	store       *storage.Store
	gateway     *world.Gateway
	ledger      *economy.Ledger
	notifier    *notify.Notifier
	events      *Events
	invites     *InvitationService
	structures  *structure.Provider
	nations     *NationService
	territories *TerritoryService
	buildings   *BuildingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dataDir := t.TempDir()

	cfg := config.Default()
	cfg.Server.DataDir = dataDir
	cfg.Nation.CreateCost = 1000
	cfg.Territory.Size = 23
	cfg.Territory.YMin = 60
	cfg.Territory.YMax = 70
	cfg.Territory.MinDistance = 100
	cfg.Territory.WallExpireMinutes = 60
	cfg.Building.MinSpacing = 3
	cfg.Building.Definitions = map[string]config.BuildingDefConfig{
		"bank":    {Structure: "structures/build/bank.json", BuildTimeSeconds: 30, Price: 5000, MinLevel: 1, MaxPerNation: 1},
		"chest":   {Structure: "structures/build/chest.json", BuildTimeSeconds: 30, Price: 3000, MinLevel: 1, MaxPerNation: 1},
		"present": {Structure: "structures/build/present.json", BuildTimeSeconds: 30, Price: 3000, MinLevel: 1, MaxPerNation: 1},
		"shop":    {Structure: "structures/build/shop.json", BuildTimeSeconds: 30, Price: 8000, MinLevel: 2, MaxPerNation: 1},
	}
	cfg.Storage.Size = 9

	for _, rel := range []string{
		cfg.Structures.Wall,
		cfg.Structures.Center,
		"structures/build/bank.json",
		"structures/build/chest.json",
		"structures/build/present.json",
		"structures/build/shop.json",
	} {
		path := filepath.Join(dataDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating template dir: %v", err)
		}
		body := `{"name":"test","blocks":[{"x":0,"y":0,"z":0,"block":"stone"}]}`
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("writing template: %v", err)
		}
	}

	store, err := storage.New(filepath.Join(dataDir, "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	gw := world.NewGateway()
	gw.Start()
	t.Cleanup(gw.Stop)

	notifier, err := notify.New(-1)
	if err != nil {
		t.Fatalf("starting message bus: %v", err)
	}
	t.Cleanup(notifier.Close)

	events := NewEvents()
	invites := NewInvitationService(cfg.InviteTTL())
	ledger := economy.NewLedger(gw)
	structures := structure.NewProvider(dataDir, cfg.Structures.Wall, cfg.Structures.Center)
	nations := NewNationService(cfg, store, ledger, invites, notifier, events)
	territories := NewTerritoryService(cfg, store, gw, structures, nations, events)
	buildings := NewBuildingService(cfg, store, gw, structures, events)

	return &testEnv{
		cfg:         cfg,
		store:       store,
		gateway:     gw,
		ledger:      ledger,
		notifier:    notifier,
		events:      events,
		invites:     invites,
		structures:  structures,
		nations:     nations,
		territories: territories,
		buildings:   buildings,
	}
}

// fund credits a player's wallet through the gateway.
func (e *testEnv) fund(t *testing.T, player uuid.UUID, amount int64) {
	t.Helper()
	if err := e.ledger.Deposit(context.Background(), player, amount); err != nil {
		t.Fatalf("funding wallet: %v", err)
	}
}

// seedNation inserts a nation with the given owner, bypassing the creation
// cost. Returns the nation id.
func (e *testEnv) seedNation(t *testing.T, name string, owner uuid.UUID) int64 {
	t.Helper()
	var id int64
	err := e.store.WithTx(context.Background(), func(tx *sql.Tx) error {
		var err error
		id, err = e.store.InsertNation(tx, &domain.Nation{Name: name, OwnerUUID: owner, Level: 1})
		if err != nil {
			return err
		}
		if err := e.store.InsertDefaultSettings(tx, id); err != nil {
			return err
		}
		return e.store.InsertMember(tx, id, owner, domain.RoleOwner)
	})
	if err != nil {
		t.Fatalf("seeding nation %s: %v", name, err)
	}
	return id
}

// addMember joins a fresh player to the nation as MEMBER.
func (e *testEnv) addMember(t *testing.T, nationID int64) uuid.UUID {
	t.Helper()
	player := uuid.New()
	err := e.store.WithTx(context.Background(), func(tx *sql.Tx) error {
		return e.store.InsertMember(tx, nationID, player, domain.RoleMember)
	})
	if err != nil {
		t.Fatalf("adding member: %v", err)
	}
	return player
}

// addTerritory inserts a claim centered at (cx, 64, cz).
func (e *testEnv) addTerritory(t *testing.T, nationID int64, cx, cz int, status domain.WallStatus) int64 {
	t.Helper()
	var expires *time.Time
	if status == domain.WallPending {
		at := time.Now().Add(time.Hour)
		expires = &at
	}
	var id int64
	err := e.store.WithTx(context.Background(), func(tx *sql.Tx) error {
		var err error
		id, err = e.store.InsertTerritory(tx, &domain.Territory{
			NationID: nationID, World: "world",
			CenterX: cx, CenterY: 64, CenterZ: cz,
			Size: e.cfg.Territory.Size, WallStatus: status, WallExpiresAt: expires,
		})
		return err
	})
	if err != nil {
		t.Fatalf("adding territory: %v", err)
	}
	return id
}

// activateBuilding inserts an ACTIVE building of the given type.
func (e *testEnv) activateBuilding(t *testing.T, territoryID int64, buildingType domain.BuildingType) int64 {
	t.Helper()
	var id int64
	err := e.store.WithTx(context.Background(), func(tx *sql.Tx) error {
		var err error
		id, err = e.store.InsertBuilding(tx, &domain.Building{
			TerritoryID: territoryID, Type: buildingType,
			State: domain.BuildingActive, Direction: domain.DirSouth,
			World: "world", Level: 1,
		})
		return err
	})
	if err != nil {
		t.Fatalf("activating %s building: %v", buildingType, err)
	}
	return id
}

// bumpLevel raises a nation's level without paying costs.
func (e *testEnv) bumpLevel(t *testing.T, nationID int64, levels int) {
	t.Helper()
	err := e.store.WithTx(context.Background(), func(tx *sql.Tx) error {
		for i := 0; i < levels; i++ {
			if err := e.store.LevelUpNation(tx, nationID, 0, 0); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("bumping level: %v", err)
	}
}

// bankNation seeds a nation with a built territory and an active bank,
// returning the nation id.
func (e *testEnv) bankNation(t *testing.T, name string, owner uuid.UUID) int64 {
	t.Helper()
	nationID := e.seedNation(t, name, owner)
	territoryID := e.addTerritory(t, nationID, 0, 0, domain.WallBuilt)
	e.activateBuilding(t, territoryID, domain.BuildingBank)
	return nationID
}
