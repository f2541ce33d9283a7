package rules

// Feature keys recognized in rule documents.
const (
	FeatureCustomResolution      = "has_custom_resolution"
	FeatureQuickPlayMultiplayer  = "is_quick_play_multiplayer"
	FeatureDemoUser              = "is_demo_user"
	FeatureQuickPlaySingleplayer = "is_quick_play_singleplayer"
	FeatureQuickPlayRealms       = "is_quick_play_realms"
)

// Features holds the session toggles a rule may test. Demo mode and
// singleplayer/realms quick play are not offered by this client and always
// resolve false.
type Features struct {
	CustomResolution     bool
	QuickPlayMultiplayer bool
}

// Resolve returns the value of a feature key. Unknown keys are false.
func (f Features) Resolve(key string) bool {
	switch key {
	case FeatureCustomResolution:
		return f.CustomResolution
	case FeatureQuickPlayMultiplayer:
		return f.QuickPlayMultiplayer
	case FeatureDemoUser, FeatureQuickPlaySingleplayer, FeatureQuickPlayRealms:
		return false
	default:
		return false
	}
}
