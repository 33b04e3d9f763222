// Package player describes the page-initialization contract of the
// vendor bundle: on DOM ready every video element is turned into a
// fluid video.js player with metadata preloading and keyboard shortcuts,
// and navigation tabs can be marked as the current page.
//
// The settings are typed here so they can be reviewed and changed in one
// place; RenderInitScript emits the script the pages include after
// vendor/all.js.
package player

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"
)

// PlayerOptions are passed to videojs(element, options).
type PlayerOptions struct {
	// Fluid makes the player scale to the width of its container.
	Fluid bool `json:"fluid"`

	// Preload is the HTML preload hint: "auto", "metadata" or "none".
	Preload string `json:"preload"`
}

// HotkeyOptions are passed to the videojs-hotkeys plugin.
type HotkeyOptions struct {
	// VolumeStep is the volume change per key press, between 0 and 1.
	VolumeStep float64 `json:"volumeStep"`

	// SeekStep is the number of seconds skipped per arrow key press.
	SeekStep int `json:"seekStep"`

	EnableMute         bool `json:"enableMute"`
	EnableFullscreen   bool `json:"enableFullscreen"`
	EnableNumbers      bool `json:"enableNumbers"`
	EnableVolumeScroll bool `json:"enableVolumeScroll"`
	EnableHoverScroll  bool `json:"enableHoverScroll"`
}

// PageConfig is the complete page-initialization contract.
type PageConfig struct {
	// Selector picks the elements enhanced on page ready.
	Selector string `json:"selector"`

	Player  PlayerOptions `json:"player"`
	Hotkeys HotkeyOptions `json:"hotkeys"`
}

// DefaultPageConfig returns the settings the application pages rely on.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Selector: "video",
		Player: PlayerOptions{
			Fluid:   true,
			Preload: "metadata",
		},
		Hotkeys: HotkeyOptions{
			VolumeStep:         0.1,
			SeekStep:           5,
			EnableMute:         true,
			EnableFullscreen:   true,
			EnableNumbers:      false,
			EnableVolumeScroll: true,
			EnableHoverScroll:  true,
		},
	}
}

// Validate rejects settings the player would silently misbehave with.
func (c PageConfig) Validate() error {
	if strings.TrimSpace(c.Selector) == "" {
		return fmt.Errorf("selector must not be empty")
	}
	switch c.Player.Preload {
	case "auto", "metadata", "none":
	default:
		return fmt.Errorf("invalid preload %q (valid: auto, metadata, none)", c.Player.Preload)
	}
	if c.Hotkeys.VolumeStep <= 0 || c.Hotkeys.VolumeStep > 1 {
		return fmt.Errorf("volume step %v out of range (0, 1]", c.Hotkeys.VolumeStep)
	}
	if c.Hotkeys.SeekStep <= 0 {
		return fmt.Errorf("seek step must be positive, got %d", c.Hotkeys.SeekStep)
	}
	return nil
}

var initScript = template.Must(template.New("init").Parse(`function activateNavTab(elementId) {
    let elt = document.getElementById(elementId);
    if (elt) {
        elt.setAttribute("aria-current", "page");
        elt.classList.add("active");
    }
}

(function (d) {
    d.querySelectorAll({{.Selector}}).forEach(video => {
        videojs(video, {{.Player}}).ready(function () {
            this.hotkeys({{.Hotkeys}});
        });
    });
})(document);
`))

// RenderInitScript writes the page-init script for cfg to w.
//
// Every value is embedded as JSON, so selectors and options are always
// valid JavaScript literals.
func RenderInitScript(w io.Writer, cfg PageConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid page config: %w", err)
	}

	data := map[string]string{}
	for key, value := range map[string]any{
		"Selector": cfg.Selector,
		"Player":   cfg.Player,
		"Hotkeys":  cfg.Hotkeys,
	} {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", strings.ToLower(key), err)
		}
		data[key] = string(encoded)
	}

	if err := initScript.Execute(w, data); err != nil {
		return fmt.Errorf("render init script: %w", err)
	}
	return nil
}
