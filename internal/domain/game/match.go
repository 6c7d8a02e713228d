package game

// Match settings used for every spawn.
const (
	GameModeSoccer        = "Soccer"
	GameMapDFHStadium     = "DFHStadium"
	BehaviorContinueSpawn = "Continue And Spawn"
)

// PlayerConfig describes one participant slot.
type PlayerConfig struct {
	Bot             bool    `json:"bot"`
	RLBotControlled bool    `json:"rlbot_controlled"`
	BotSkill        float64 `json:"bot_skill"`
	HumanIndex      int     `json:"human_index"`
	Name            string  `json:"name"`
	Team            int     `json:"team"`
	SpawnID         int32   `json:"spawn_id"`
	ConfigPath      string  `json:"config_path"`
}

// MatchConfig is what the host needs to (re)start a match and launch the
// bot processes it lists.
type MatchConfig struct {
	PlayerConfigs         []PlayerConfig    `json:"player_configs"`
	GameMode              string            `json:"game_mode"`
	GameMap               string            `json:"game_map"`
	ExistingMatchBehavior string            `json:"existing_match_behavior"`
	Mutators              map[string]string `json:"mutators,omitempty"`
	EnableStateSetting    bool              `json:"enable_state_setting"`
}
