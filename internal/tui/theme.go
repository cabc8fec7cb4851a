package tui

import (
	"github.com/gdamore/tcell/v2"
)

// Stage color palette
var (
	// Primary accent, a warm gel amber
	StageAmber = tcell.NewRGBColor(245, 166, 35) // #F5A623

	// Neutral colors
	StageDark  = tcell.NewRGBColor(30, 30, 36)    // #1E1E24
	StageGray  = tcell.NewRGBColor(128, 128, 128) // #808080
	StageLight = tcell.NewRGBColor(210, 210, 210) // #D2D2D2

	// Status colors
	SuccessGreen  = tcell.NewRGBColor(34, 197, 94)  // #22C55E
	ErrorRed      = tcell.NewRGBColor(239, 68, 68)  // #EF4444
	WarningYellow = tcell.NewRGBColor(234, 179, 8)  // #EAB308
	InfoBlue      = tcell.NewRGBColor(59, 130, 246) // #3B82F6

	LightGray = tcell.ColorLightGray
)

// Symbols
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
	SymbolArrow   = "→"
	SymbolBullet  = "•"
)

// StatusColor returns the color used to render a status word.
func StatusColor(status string) tcell.Color {
	switch status {
	case "success", "ok", "done", "completed":
		return SuccessGreen
	case "error", "failed", "fail":
		return ErrorRed
	case "warning", "warn":
		return WarningYellow
	case "info", "pending", "running":
		return InfoBlue
	default:
		return LightGray
	}
}

// StatusSymbol returns the symbol used to render a status word.
func StatusSymbol(status string) string {
	switch status {
	case "success", "ok", "done", "completed":
		return SymbolSuccess
	case "error", "failed", "fail":
		return SymbolError
	case "warning", "warn":
		return SymbolWarning
	case "info", "pending", "running":
		return SymbolInfo
	default:
		return SymbolBullet
	}
}
