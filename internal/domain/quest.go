package domain

import "time"

// QuestKind distinguishes how progress is counted.
type QuestKind string

const (
	QuestItemDelivery QuestKind = "ITEM_DELIVERY"
	QuestSmelt        QuestKind = "SMELT"
	QuestMine         QuestKind = "MINE"
)

// QuestType is one entry of the fixed daily quest pool.
type QuestType struct {
	ID          int
	DisplayName string
	BaseAmount  int
	Kind        QuestKind
	Materials   []string
}

// QuestTypes is the daily quest pool.
var QuestTypes = []QuestType{
	{1, "Harvest wheat", 60, QuestItemDelivery, []string{"wheat"}},
	{2, "Harvest sugar cane", 120, QuestItemDelivery, []string{"sugar_cane"}},
	{3, "Harvest potatoes", 120, QuestItemDelivery, []string{"potato"}},
	{4, "Harvest carrots", 120, QuestItemDelivery, []string{"carrot"}},
	{5, "Harvest pumpkins", 80, QuestItemDelivery, []string{"pumpkin"}},
	{6, "Harvest melons", 160, QuestItemDelivery, []string{"melon"}},
	{7, "Smelt iron", 100, QuestSmelt, []string{"iron_ingot"}},
	{8, "Smelt gold", 40, QuestSmelt, []string{"gold_ingot"}},
	{9, "Mine diamonds", 15, QuestMine, []string{"diamond_ore", "deepslate_diamond_ore"}},
	{10, "Mine emeralds", 7, QuestMine, []string{"emerald_ore", "deepslate_emerald_ore"}},
}

// AcceptsMaterial reports whether the material counts toward this quest.
func (t QuestType) AcceptsMaterial(material string) bool {
	for _, m := range t.Materials {
		if m == material {
			return true
		}
	}
	return false
}

// QuestTypeByID resolves a pool entry by its id.
func QuestTypeByID(id int) (QuestType, bool) {
	for _, t := range QuestTypes {
		if t.ID == id {
			return t, true
		}
	}
	return QuestType{}, false
}

// DailyQuest is one nation's quest for a given day.
type DailyQuest struct {
	ID             int64     `json:"id"`
	NationID       int64     `json:"nation_id"`
	QuestID        int       `json:"quest_id"`
	RequiredAmount int       `json:"required_amount"`
	ProgressAmount int       `json:"progress_amount"`
	Completed      bool      `json:"completed"`
	QuestDate      time.Time `json:"quest_date"`
}

// Type returns the pool entry for this quest.
func (q DailyQuest) Type() (QuestType, bool) {
	return QuestTypeByID(q.QuestID)
}
