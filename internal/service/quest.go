package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/google/uuid"
)

// QuestService manages daily nation quests. A day's quest set is drawn once
// by the owner and shared by the whole nation; required amounts scale with
// member count.
type QuestService struct {
	cfg     *config.Config
	store   *storage.Store
	nations *NationService

	now func() time.Time
}

// NewQuestService creates the daily quest service.
func NewQuestService(cfg *config.Config, store *storage.Store, nations *NationService) *QuestService {
	return &QuestService{cfg: cfg, store: store, nations: nations, now: time.Now}
}

// QuestsResult carries the day's quest set on success.
type QuestsResult struct {
	Status Status             `json:"status"`
	Quests []domain.DailyQuest `json:"quests,omitempty"`
}

// DeliverResult reports an item delivery against a quest.
type DeliverResult struct {
	Status    Status `json:"status"`
	Accepted  int    `json:"accepted,omitempty"`
	Progress  int    `json:"progress,omitempty"`
	Required  int    `json:"required,omitempty"`
	Completed bool   `json:"completed,omitempty"`
	RewardExp int    `json:"reward_exp,omitempty"`
}

// GetOrCreateDaily returns today's quest set, drawing a fresh one if none
// exists. Only the owner may draw, and only once the nation has a built
// wall. Drawing replaces any leftover rows for the date in the same
// transaction, so a double draw cannot leave a mixed set.
func (s *QuestService) GetOrCreateDaily(ctx context.Context, player uuid.UUID) QuestsResult {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return QuestsResult{Status: StatusError}
	}
	if member == nil {
		return QuestsResult{Status: StatusNotInNation}
	}
	built, err := s.store.HasBuiltWall(ctx, member.NationID)
	if err != nil {
		return QuestsResult{Status: StatusError}
	}
	if !built {
		return QuestsResult{Status: StatusWallNotBuilt}
	}

	today := s.today()
	quests, err := s.store.ListQuestsByNationAndDate(ctx, member.NationID, today)
	if err != nil {
		return QuestsResult{Status: StatusError}
	}
	if len(quests) > 0 {
		return QuestsResult{Status: StatusSuccess, Quests: quests}
	}
	if member.Role != domain.RoleOwner {
		return QuestsResult{Status: StatusOwnerOnly}
	}

	memberCount, err := s.store.CountMembers(ctx, member.NationID)
	if err != nil {
		return QuestsResult{Status: StatusError}
	}
	drawn := s.draw(member.NationID, memberCount, today)

	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.store.DeleteQuestsByNationAndDate(tx, member.NationID, today); err != nil {
			return err
		}
		for i := range drawn {
			id, err := s.store.InsertQuest(tx, &drawn[i])
			if err != nil {
				return err
			}
			drawn[i].ID = id
		}
		return nil
	})
	if err != nil {
		log.Printf("quest: drawing daily quests for nation %d: %v", member.NationID, err)
		return QuestsResult{Status: StatusError}
	}
	return QuestsResult{Status: StatusSuccess, Quests: drawn}
}

// ListDaily returns today's quest set without drawing a new one.
func (s *QuestService) ListDaily(ctx context.Context, player uuid.UUID) QuestsResult {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return QuestsResult{Status: StatusError}
	}
	if member == nil {
		return QuestsResult{Status: StatusNotInNation}
	}
	quests, err := s.store.ListQuestsByNationAndDate(ctx, member.NationID, s.today())
	if err != nil {
		return QuestsResult{Status: StatusError}
	}
	if len(quests) == 0 {
		return QuestsResult{Status: StatusNoQuests}
	}
	return QuestsResult{Status: StatusSuccess, Quests: quests}
}

// DeliverItems applies an item hand-in to a delivery quest. Only
// ITEM_DELIVERY quests accept deliveries; progress past the requirement is
// clamped and the surplus reported back as unaccepted. Completing the quest
// awards random nation experience.
func (s *QuestService) DeliverItems(ctx context.Context, player uuid.UUID, questID int, item string, count int) DeliverResult {
	if count <= 0 {
		return DeliverResult{Status: StatusError}
	}
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return DeliverResult{Status: StatusError}
	}
	if member == nil {
		return DeliverResult{Status: StatusNotInNation}
	}

	today := s.today()
	quests, err := s.store.ListQuestsByNationAndDate(ctx, member.NationID, today)
	if err != nil {
		return DeliverResult{Status: StatusError}
	}
	if len(quests) == 0 {
		return DeliverResult{Status: StatusNoQuests}
	}

	var quest *domain.DailyQuest
	for i := range quests {
		if quests[i].QuestID == questID {
			quest = &quests[i]
			break
		}
	}
	if quest == nil {
		return DeliverResult{Status: StatusNoQuests}
	}
	if quest.Completed {
		return DeliverResult{Status: StatusAlreadyCompleted}
	}

	questType, ok := quest.Type()
	if !ok || questType.Kind != domain.QuestItemDelivery {
		return DeliverResult{Status: StatusInvalidType}
	}
	if !questType.AcceptsMaterial(item) {
		return DeliverResult{Status: StatusInvalidType}
	}

	accepted := count
	if remaining := quest.RequiredAmount - quest.ProgressAmount; accepted > remaining {
		accepted = remaining
	}
	progress := quest.ProgressAmount + accepted
	completed := progress >= quest.RequiredAmount

	rewardExp := 0
	if completed {
		rewardExp = s.rollReward()
	}

	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.store.UpdateQuestProgress(tx, member.NationID, questID, today, progress, completed); err != nil {
			return err
		}
		if completed {
			return s.store.AddExp(tx, member.NationID, int64(rewardExp))
		}
		return nil
	})
	if err != nil {
		log.Printf("quest: recording delivery for nation %d quest %d: %v", member.NationID, questID, err)
		return DeliverResult{Status: StatusError}
	}

	if completed {
		s.nations.SendNationMessage(ctx, member.NationID,
			fmt.Sprintf("[Nation] Quest complete: %s (+%d exp)", questType.DisplayName, rewardExp))
	}
	return DeliverResult{
		Status:    StatusSuccess,
		Accepted:  accepted,
		Progress:  progress,
		Required:  quest.RequiredAmount,
		Completed: completed,
		RewardExp: rewardExp,
	}
}

// AddProgress applies ambient progress (mining, smelting) to any matching
// incomplete quest for the nation. Best effort; failures are logged.
func (s *QuestService) AddProgress(ctx context.Context, nationID int64, kind domain.QuestKind, material string, amount int) {
	if amount <= 0 {
		return
	}
	today := s.today()
	quests, err := s.store.ListQuestsByNationAndDate(ctx, nationID, today)
	if err != nil {
		log.Printf("quest: listing quests for nation %d: %v", nationID, err)
		return
	}
	for i := range quests {
		quest := &quests[i]
		if quest.Completed {
			continue
		}
		questType, ok := quest.Type()
		if !ok || questType.Kind != kind || !questType.AcceptsMaterial(material) {
			continue
		}

		progress := quest.ProgressAmount + amount
		if progress > quest.RequiredAmount {
			progress = quest.RequiredAmount
		}
		completed := progress >= quest.RequiredAmount
		rewardExp := 0
		if completed {
			rewardExp = s.rollReward()
		}

		err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
			if err := s.store.UpdateQuestProgress(tx, nationID, quest.QuestID, today, progress, completed); err != nil {
				return err
			}
			if completed {
				return s.store.AddExp(tx, nationID, int64(rewardExp))
			}
			return nil
		})
		if err != nil {
			log.Printf("quest: recording progress for nation %d quest %d: %v", nationID, quest.QuestID, err)
			continue
		}
		if completed {
			s.nations.SendNationMessage(ctx, nationID,
				fmt.Sprintf("[Nation] Quest complete: %s (+%d exp)", questType.DisplayName, rewardExp))
		}
		return
	}
}

// draw picks the day's quests uniformly without replacement from the pool.
// Required amounts scale with member count: base * (1 + (members-1) * 0.5),
// rounded to nearest.
func (s *QuestService) draw(nationID int64, memberCount int, date time.Time) []domain.DailyQuest {
	count := s.cfg.Quests.DailyCount
	if count > len(domain.QuestTypes) {
		count = len(domain.QuestTypes)
	}
	picked := rand.Perm(len(domain.QuestTypes))[:count]

	scale := 1 + float64(memberCount-1)*0.5
	quests := make([]domain.DailyQuest, 0, count)
	for _, idx := range picked {
		questType := domain.QuestTypes[idx]
		quests = append(quests, domain.DailyQuest{
			NationID:       nationID,
			QuestID:        questType.ID,
			RequiredAmount: int(math.Round(float64(questType.BaseAmount) * scale)),
			QuestDate:      date,
		})
	}
	return quests
}

func (s *QuestService) rollReward() int {
	min, max := s.cfg.Quests.RewardMinExp, s.cfg.Quests.RewardMaxExp
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}

func (s *QuestService) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
