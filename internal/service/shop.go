package service

import (
	"context"
	"fmt"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/economy"
	"github.com/M-LunaFarm/NationSystem/internal/notify"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/google/uuid"
)

// ShopService sells building vouchers to nation owners. A voucher is what a
// later PlaceBuilding call consumes; the shop itself only takes payment and
// hands the voucher out.
type ShopService struct {
	cfg       *config.Config
	store     *storage.Store
	ledger    *economy.Ledger
	buildings *BuildingService
	notifier  *notify.Notifier
}

// NewShopService creates the building shop.
func NewShopService(cfg *config.Config, store *storage.Store, ledger *economy.Ledger, buildings *BuildingService, notifier *notify.Notifier) *ShopService {
	return &ShopService{cfg: cfg, store: store, ledger: ledger, buildings: buildings, notifier: notifier}
}

// PurchaseResult reports a voucher purchase.
type PurchaseResult struct {
	Status  Status              `json:"status"`
	Type    domain.BuildingType `json:"type,omitempty"`
	Price   int64               `json:"price,omitempty"`
	Voucher string              `json:"voucher,omitempty"`
}

// Listing is one purchasable entry of the shop catalog.
type Listing struct {
	Type        domain.BuildingType `json:"type"`
	DisplayName string              `json:"display_name"`
	Price       int64               `json:"price"`
	MinLevel    int                 `json:"min_level"`
	Affordable  bool                `json:"affordable"`
}

// Catalog returns the purchasable building types for the caller's nation,
// with affordability judged against the caller's wallet.
func (s *ShopService) Catalog(ctx context.Context, player uuid.UUID) ([]Listing, Status) {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return nil, StatusError
	}
	if member == nil {
		return nil, StatusNotInNation
	}
	balance, err := s.ledger.Balance(ctx, player)
	if err != nil {
		balance = 0
	}

	var listings []Listing
	for _, t := range domain.BuildingTypes {
		def, ok := s.cfg.BuildingDefinition(t)
		if !ok {
			continue
		}
		listings = append(listings, Listing{
			Type:        t,
			DisplayName: def.DisplayName,
			Price:       def.Price,
			MinLevel:    def.MinLevel,
			Affordable:  balance >= def.Price,
		})
	}
	return listings, StatusSuccess
}

// Buy sells a building voucher to the nation owner. Requires an active shop
// building and a nation level at or above the definition's minimum. Payment
// comes from the owner's wallet.
func (s *ShopService) Buy(ctx context.Context, player uuid.UUID, buildingType domain.BuildingType) PurchaseResult {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return PurchaseResult{Status: StatusError}
	}
	if member == nil {
		return PurchaseResult{Status: StatusNotInNation}
	}
	if member.Role != domain.RoleOwner {
		return PurchaseResult{Status: StatusOwnerOnly}
	}

	def, ok := s.cfg.BuildingDefinition(buildingType)
	if !ok {
		return PurchaseResult{Status: StatusInvalidType}
	}
	nation, err := s.store.GetNationByID(ctx, member.NationID)
	if err != nil || nation == nil {
		return PurchaseResult{Status: StatusError}
	}
	if nation.Level < def.MinLevel {
		return PurchaseResult{Status: StatusLevelTooLow}
	}

	has, err := s.buildings.HasActiveBuilding(ctx, member.NationID, domain.BuildingShop)
	if err != nil {
		return PurchaseResult{Status: StatusError}
	}
	if !has {
		return PurchaseResult{Status: StatusNoShopBuilding}
	}

	if err := s.ledger.Withdraw(ctx, player, def.Price); err != nil {
		return PurchaseResult{Status: StatusInsufficientFunds}
	}

	voucher := fmt.Sprintf("building:%s", buildingType)
	s.notifier.PlayerMessage(player,
		fmt.Sprintf("[Nation] Purchased %s for %d.", def.DisplayName, def.Price))
	return PurchaseResult{Status: StatusSuccess, Type: buildingType, Price: def.Price, Voucher: voucher}
}
