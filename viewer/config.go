package viewer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Config is the flat key-value viewer configuration. Keys are
// case-insensitive with '_' and '-' treated identically; values are
// stored as strings with booleans normalized to "1"/"0". Typed setters
// cover the recognized options; SetValue is the escape hatch for
// anything else.
type Config struct {
	values map[string]string
}

// Create an empty configuration.
func NewConfig() *Config {
	return &Config{values: make(map[string]string)}
}

// Parse a configuration from its text form, one "key value" pair per
// line. Blank lines are skipped.
func ParseConfig(text string) *Config {
	config := NewConfig()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		config.SetValue(key, value)
	}
	return config
}

// Get the configuration as plain text, one "key value" pair per line
// in sorted key order.
func (c *Config) String() string {
	keys := make([]string, 0, len(c.values))
	for key := range c.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, key := range keys {
		lines[i] = key + " " + c.values[key]
	}
	return strings.Join(lines, "\n")
}

// Set a setting value. Booleans are stored as "1"/"0", any other value
// as its default string form.
func (c *Config) SetValue(key string, value interface{}) {
	if flag, isBool := value.(bool); isBool {
		if flag {
			value = 1
		} else {
			value = 0
		}
	}
	c.values[normalizeKey(key)] = fmt.Sprint(value)
}

// Returns true when the setting is present.
func (c *Config) Has(key string) bool {
	_, exists := c.values[normalizeKey(key)]
	return exists
}

// Get a string setting value.
func (c *Config) GetString(key, fallback string) string {
	if value, exists := c.values[normalizeKey(key)]; exists {
		return value
	}
	return fallback
}

// Get a boolean setting value.
func (c *Config) GetBool(key string, fallback bool) bool {
	value, exists := c.values[normalizeKey(key)]
	if !exists {
		return fallback
	}
	flag, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return flag
}

// Get an integer setting value.
func (c *Config) GetInt(key string, fallback int) int {
	value, exists := c.values[normalizeKey(key)]
	if !exists {
		return fallback
	}
	number, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return number
}

// Get a float setting value.
func (c *Config) GetFloat(key string, fallback float32) float32 {
	value, exists := c.values[normalizeKey(key)]
	if !exists {
		return fallback
	}
	number, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return fallback
	}
	return float32(number)
}

// Get a two-integer setting value such as a window size.
func (c *Config) GetVec2(key string, fallbackA, fallbackB int) (int, int) {
	value, exists := c.values[normalizeKey(key)]
	if !exists {
		return fallbackA, fallbackB
	}
	var a, b int
	if _, err := fmt.Sscanf(value, "%d %d", &a, &b); err != nil {
		return fallbackA, fallbackB
	}
	return a, b
}

// Set the window type, one of "onscreen", "offscreen".
func (c *Config) SetWindowType(windowType string) {
	c.SetValue("window-type", windowType)
}

// Set the window title.
func (c *Config) SetWindowTitle(title string) {
	c.SetValue("window-title", title)
}

// Set the window size in pixels.
func (c *Config) SetWindowSize(width, height int) {
	c.SetValue("win-size", fmt.Sprintf("%d %d", width, height))
}

// Disable window resizing.
func (c *Config) SetWindowFixed(fixed bool) {
	c.SetValue("win-fixed-size", fixed)
}

// Set the scale factor applied to all geometries in the scene.
func (c *Config) SetSceneScale(scale float32) {
	c.SetValue("scene-scale", scale)
}

// Enable MSAA antialiasing with the given multisample count (2..16).
func (c *Config) EnableAntialiasing(enable bool, multisamples int) {
	c.SetValue("framebuffer-multisample", enable)
	c.SetValue("multisamples", multisamples)
}

// Enable lighting.
func (c *Config) EnableLights(enable bool) {
	c.SetValue("enable-lights", enable)
}

// Use spot lights instead of directional lights.
func (c *Config) EnableSpotlight(enable bool) {
	c.SetValue("enable-spotlight", enable)
}

// Enable shadow casting.
func (c *Config) EnableShadow(enable bool) {
	c.SetValue("enable-shadow", enable)
}

// Enable the HDR tone-mapping effect.
func (c *Config) EnableHDR(enable bool) {
	c.SetValue("enable-hdr", enable)
}

// Enable distance fog.
func (c *Config) EnableFog(enable bool) {
	c.SetValue("enable-fog", enable)
}

// Show the world axes.
func (c *Config) ShowAxes(show bool) {
	c.SetValue("show-axes", show)
}

// Show the ground grid.
func (c *Config) ShowGrid(show bool) {
	c.SetValue("show-grid", show)
}

// Show the floor plane.
func (c *Config) ShowFloor(show bool) {
	c.SetValue("show-floor", show)
}

// Treat loaded mesh files as authored with a Y-up axis convention and
// rotate them into the Z-up scene at load time.
func (c *Config) SetMeshYUp(yUp bool) {
	c.SetValue("mesh-y-up", yUp)
}

// Set the model cache parameters. An empty directory disables the mesh
// and texture caches.
func (c *Config) SetModelCache(cacheDir string, cacheTextures bool) {
	c.SetValue("model-cache-dir", cacheDir)
	c.SetValue("model-cache-textures", cacheTextures)
}

// Show the frame rate meter in the window title.
func (c *Config) ShowFPSMeter(show bool) {
	c.SetValue("show-frame-rate-meter", show)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}
