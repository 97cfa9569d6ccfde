package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Notify     NotifyConfig     `yaml:"notify"`
	Nation     NationConfig     `yaml:"nation"`
	Territory  TerritoryConfig  `yaml:"territory"`
	Building   BuildingConfig   `yaml:"building"`
	War        WarConfig        `yaml:"war"`
	Present    PresentConfig    `yaml:"present"`
	Storage    StorageConfig    `yaml:"storage"`
	Structures StructuresConfig `yaml:"structures"`
	Quests     QuestConfig      `yaml:"quests"`

	namePattern *regexp.Regexp
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	HTTPPort   int    `yaml:"http_port"`
	DataDir    string `yaml:"data_dir"`
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds admin authentication settings
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

// NotifyConfig holds the embedded message bus settings
type NotifyConfig struct {
	Port int `yaml:"port"`
}

// NationConfig holds identity and progression settings
type NationConfig struct {
	NameMinLength         int     `yaml:"name_min_length"`
	NameMaxLength         int     `yaml:"name_max_length"`
	NameRegex             string  `yaml:"name_regex"`
	CreateCost            int64   `yaml:"create_cost"`
	InviteExpireSeconds   int     `yaml:"invite_expire_seconds"`
	MaxMembersDefault     int     `yaml:"max_members_default"`
	MaxMembersByLevel     []int   `yaml:"max_members_by_level"`
	MaxTerritoriesByLevel []int   `yaml:"max_territories_by_level"`
	LevelUpExp            []int64 `yaml:"level_up_exp"`
	LevelUpMoney          []int64 `yaml:"level_up_money"`
	ChatFormat            string  `yaml:"chat_format"`
}

// TerritoryConfig holds land-claim settings
type TerritoryConfig struct {
	World             string `yaml:"world"`
	Size              int    `yaml:"size"`
	MinDistance       int    `yaml:"min_distance"`
	XZLimit           int    `yaml:"xz_limit"`
	YMin              int    `yaml:"y_min"`
	YMax              int    `yaml:"y_max"`
	WallExpireMinutes int    `yaml:"wall_expire_minutes"`
	MaxPerNation      int    `yaml:"max_per_nation"`
}

// BuildingConfig holds construction settings and per-type definitions
type BuildingConfig struct {
	MinSpacing  int                          `yaml:"min_spacing"`
	Definitions map[string]BuildingDefConfig `yaml:"definitions"`
}

// BuildingDefConfig is the YAML shape of one building definition
type BuildingDefConfig struct {
	DisplayName      string `yaml:"display_name"`
	BuildTimeSeconds int    `yaml:"build_time_seconds"`
	Structure        string `yaml:"structure"`
	Price            int64  `yaml:"price"`
	MinLevel         int    `yaml:"min_level"`
	MaxPerNation     int    `yaml:"max_per_nation"`
}

// WarConfig holds matchmaking and combat timing settings
type WarConfig struct {
	MatchOpen      bool        `yaml:"match_open"`
	PrepareSeconds int         `yaml:"prepare_seconds"`
	BattleSeconds  int         `yaml:"battle_seconds"`
	MatchBands     []MatchBand `yaml:"match_bands"`
}

// MatchBand widens the allowed level difference with waiting time. Bands are
// ordered by TimeSeconds ascending; a nation waiting past the last threshold
// keeps the last band's tolerance.
type MatchBand struct {
	TimeSeconds  int `yaml:"time_seconds"`
	MaxLevelDiff int `yaml:"max_level_diff"`
}

// PresentConfig holds daily present settings
type PresentConfig struct {
	CooldownHours int   `yaml:"cooldown_hours"`
	RewardMoney   int64 `yaml:"reward_money"`
	RewardExp     int64 `yaml:"reward_exp"`
}

// StorageConfig holds shared nation storage settings
type StorageConfig struct {
	Size int `yaml:"size"`
}

// StructuresConfig holds the wall and center template paths
type StructuresConfig struct {
	Wall   string `yaml:"wall"`
	Center string `yaml:"center"`
}

// QuestConfig holds daily quest settings
type QuestConfig struct {
	DailyCount   int `yaml:"daily_count"`
	RewardMinExp int `yaml:"reward_min_exp"`
	RewardMaxExp int `yaml:"reward_max_exp"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every knob at its default value.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.applyDefaults(); err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) applyDefaults() error {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "127.0.0.1"
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = "/var/lib/nationd"
	}
	if c.Database.Path == "" {
		c.Database.Path = "/var/lib/nationd/nationd.db"
	}
	if c.Auth.TokenDuration == 0 {
		c.Auth.TokenDuration = 24 * time.Hour
	}
	if c.Notify.Port == 0 {
		c.Notify.Port = -1 // pick a free port for the embedded server
	}

	if c.Nation.NameMinLength == 0 {
		c.Nation.NameMinLength = 2
	}
	if c.Nation.NameMaxLength == 0 {
		c.Nation.NameMaxLength = 16
	}
	if c.Nation.NameRegex == "" {
		c.Nation.NameRegex = "^[a-zA-Z0-9_]+$"
	}
	pattern, err := regexp.Compile(c.Nation.NameRegex)
	if err != nil {
		return fmt.Errorf("compiling nation name regex: %w", err)
	}
	c.namePattern = pattern
	if c.Nation.InviteExpireSeconds == 0 {
		c.Nation.InviteExpireSeconds = 60
	}
	if c.Nation.MaxMembersDefault == 0 {
		c.Nation.MaxMembersDefault = 20
	}
	if len(c.Nation.LevelUpExp) == 0 {
		c.Nation.LevelUpExp = []int64{1000, 5000, 10000, 30000, 60000, 150000, 300000, 500000, 1000000}
	}
	if len(c.Nation.LevelUpMoney) == 0 {
		c.Nation.LevelUpMoney = []int64{5000000, 10000000, 30000000, 70000000, 100000000, 500000000, 1000000000, 3000000000, 5000000000}
	}
	if c.Nation.ChatFormat == "" {
		c.Nation.ChatFormat = "[Nation] %player%: %message%"
	}

	if c.Territory.World == "" {
		c.Territory.World = "world"
	}
	if c.Territory.Size == 0 {
		c.Territory.Size = 103
	}
	if c.Territory.MinDistance == 0 {
		c.Territory.MinDistance = 300
	}
	if c.Territory.XZLimit == 0 {
		c.Territory.XZLimit = 7000
	}
	if c.Territory.YMin == 0 {
		c.Territory.YMin = 35
	}
	if c.Territory.YMax == 0 {
		c.Territory.YMax = 80
	}
	if c.Territory.WallExpireMinutes == 0 {
		c.Territory.WallExpireMinutes = 60
	}
	if c.Territory.MaxPerNation == 0 {
		c.Territory.MaxPerNation = 1
	}

	if c.Building.MinSpacing == 0 {
		c.Building.MinSpacing = 21
	}

	if c.War.PrepareSeconds == 0 {
		c.War.MatchOpen = true
		c.War.PrepareSeconds = 180
	}
	if c.War.BattleSeconds == 0 {
		c.War.BattleSeconds = 1800
	}
	if len(c.War.MatchBands) == 0 {
		c.War.MatchBands = []MatchBand{{TimeSeconds: 60, MaxLevelDiff: 1}}
	}
	sort.Slice(c.War.MatchBands, func(i, j int) bool {
		return c.War.MatchBands[i].TimeSeconds < c.War.MatchBands[j].TimeSeconds
	})

	if c.Present.CooldownHours == 0 {
		c.Present.CooldownHours = 20
	}
	if c.Storage.Size == 0 {
		c.Storage.Size = 54
	}
	if c.Structures.Wall == "" {
		c.Structures.Wall = "structures/wall/basic_wall.json"
	}
	if c.Structures.Center == "" {
		c.Structures.Center = "structures/build/center.json"
	}
	if c.Quests.DailyCount == 0 {
		c.Quests.DailyCount = 3
	}
	if c.Quests.RewardMinExp == 0 {
		c.Quests.RewardMinExp = 100
	}
	if c.Quests.RewardMaxExp == 0 {
		c.Quests.RewardMaxExp = 300
	}
	return nil
}

// ValidNationName checks length and pattern.
func (c *Config) ValidNationName(name string) bool {
	if len(name) < c.Nation.NameMinLength || len(name) > c.Nation.NameMaxLength {
		return false
	}
	return c.namePattern.MatchString(name)
}

// MaxMembersForLevel returns the member cap for a nation level.
func (c *Config) MaxMembersForLevel(level int) int {
	return valueForLevel(c.Nation.MaxMembersByLevel, level, c.Nation.MaxMembersDefault)
}

// MaxTerritoriesForLevel returns the simultaneous-claim cap for a level.
func (c *Config) MaxTerritoriesForLevel(level int) int {
	return valueForLevel(c.Nation.MaxTerritoriesByLevel, level, c.Territory.MaxPerNation)
}

// LevelUpExpCost returns the experience cost to leave the given level, or -1
// when the level is beyond the configured curve.
func (c *Config) LevelUpExpCost(currentLevel int) int64 {
	return costForLevel(c.Nation.LevelUpExp, currentLevel)
}

// LevelUpMoneyCost returns the treasury cost to leave the given level, or -1
// when the level is beyond the configured curve.
func (c *Config) LevelUpMoneyCost(currentLevel int) int64 {
	return costForLevel(c.Nation.LevelUpMoney, currentLevel)
}

// MaxLevel is the highest reachable nation level.
func (c *Config) MaxLevel() int {
	exp := len(c.Nation.LevelUpExp)
	money := len(c.Nation.LevelUpMoney)
	if money < exp {
		return money + 1
	}
	return exp + 1
}

// InviteTTL returns the invitation lifetime.
func (c *Config) InviteTTL() time.Duration {
	return time.Duration(c.Nation.InviteExpireSeconds) * time.Second
}

// WallExpiry returns how long a PENDING territory lives.
func (c *Config) WallExpiry() time.Duration {
	return time.Duration(c.Territory.WallExpireMinutes) * time.Minute
}

// AllowedLevelDiff returns the matchmaking tolerance for a wait time.
// Tolerance is monotonically non-decreasing in waitedSeconds; past the last
// band the last tolerance applies.
func (c *Config) AllowedLevelDiff(waitedSeconds int) int {
	bands := c.War.MatchBands
	for _, band := range bands {
		if waitedSeconds <= band.TimeSeconds {
			return band.MaxLevelDiff
		}
	}
	return bands[len(bands)-1].MaxLevelDiff
}

// BuildingDefinition resolves the configured definition for a type.
func (c *Config) BuildingDefinition(t domain.BuildingType) (domain.BuildingDefinition, bool) {
	raw, ok := c.Building.Definitions[string(t)]
	if !ok {
		return domain.BuildingDefinition{}, false
	}
	def := domain.BuildingDefinition{
		Type:             t,
		DisplayName:      raw.DisplayName,
		BuildTimeSeconds: raw.BuildTimeSeconds,
		StructurePath:    raw.Structure,
		Price:            raw.Price,
		MinLevel:         raw.MinLevel,
		MaxPerNation:     raw.MaxPerNation,
	}
	if def.DisplayName == "" {
		def.DisplayName = string(t)
	}
	if def.BuildTimeSeconds == 0 {
		def.BuildTimeSeconds = 60
	}
	if def.MinLevel == 0 {
		def.MinLevel = 1
	}
	if def.MaxPerNation == 0 {
		def.MaxPerNation = 1
	}
	return def, true
}

func valueForLevel(values []int, level int, fallback int) int {
	if len(values) == 0 {
		return fallback
	}
	index := level - 1
	if index < 0 {
		index = 0
	}
	if index < len(values) {
		return values[index]
	}
	return values[len(values)-1]
}

func costForLevel(values []int64, level int) int64 {
	if len(values) == 0 {
		return -1
	}
	index := level - 1
	if index < 0 {
		index = 0
	}
	if index < len(values) {
		return values[index]
	}
	return -1
}
