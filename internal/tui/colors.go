package tui

const (
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorBorder        = "#3A3F55"

	ColorWork    = "#F97316"
	ColorRest    = "#22C55E"
	ColorIdle    = "#A78BFA"
	ColorPaused  = "#F59E0B"
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
)
