package domain

// SoundAsset is one entry of the trigger-sound gallery. MinLevel is the
// accumulated atmosphere time (in minutes) required to unlock it.
type SoundAsset struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
	MinLevel int    `json:"minLevel"`
}

const (
	CategoryCommon  = "common"
	CategoryNiche   = "niche"
	CategoryPremium = "premium"
)

// SoundCatalog is the built-in gallery. Niche sounds unlock at 5 hours
// of atmosphere time, premium at 20 hours.
var SoundCatalog = []SoundAsset{
	{ID: "hairdryer", Label: "Hair Dryer (Fön)", Category: CategoryCommon, MinLevel: 0},
	{ID: "rain", Label: "Heavy Rain", Category: CategoryCommon, MinLevel: 0},
	{ID: "fan", Label: "Vacuum Cleaner", Category: CategoryCommon, MinLevel: 0},
	{ID: "washing_machine", Label: "Washing Machine", Category: CategoryCommon, MinLevel: 0},

	{ID: "ship_engine", Label: "Ship Engine Rumble", Category: CategoryNiche, MinLevel: 300},
	{ID: "server_room", Label: "Server Room Hum", Category: CategoryNiche, MinLevel: 300},
	{ID: "ceiling_fan", Label: "Ceiling Fan Click", Category: CategoryNiche, MinLevel: 300},

	{ID: "underwater", Label: "Underwater Bubbles", Category: CategoryPremium, MinLevel: 1200},
	{ID: "fountain_pen", Label: "Fountain Pen Scratch", Category: CategoryPremium, MinLevel: 1200},
}
