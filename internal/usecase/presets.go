package usecase

// Instructions for the quick-edit presets. Resolution lives in the
// orchestration layer so the vision adapter stays a pass-through: it sends
// whatever instruction it is handed.
var editPresets = map[string]string{
	"replace_background": "Replace the background of this image with a clean, softly lit studio backdrop. Keep every foreground subject and all text unchanged.",
	"restyle_text":       "Restyle all readable text in this image with a bold, modern typeface and high contrast. Keep the wording and position of each text element unchanged.",
	"remove_logo":        "Remove any logos or watermarks from this image and reconstruct the area behind them naturally. Leave everything else unchanged.",
}

func presetPrompt(name string) (string, bool) {
	p, ok := editPresets[name]
	return p, ok
}
