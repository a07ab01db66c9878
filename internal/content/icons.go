package content

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Icon is the closed set of service glyphs the templates know how to draw.
type Icon int

const (
	IconSnowflake Icon = iota + 1
	IconFlame
	IconWind
	IconShield
)

var iconNames = map[Icon]string{
	IconSnowflake: "snowflake",
	IconFlame:     "flame",
	IconWind:      "wind",
	IconShield:    "shield",
}

// ParseIcon maps a catalogue key onto a known icon.
func ParseIcon(key string) (Icon, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for icon, name := range iconNames {
		if name == key {
			return icon, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIcon, key)
}

func (i Icon) String() string {
	if name, ok := iconNames[i]; ok {
		return name
	}
	return "unknown"
}

// Glyph is the inline SVG path data drawn for the icon.
func (i Icon) Glyph() string {
	switch i {
	case IconSnowflake:
		return "M12 2v20M2 12h20M4.9 4.9l14.2 14.2M19.1 4.9L4.9 19.1"
	case IconFlame:
		return "M12 2c1 4 5 6 5 11a5 5 0 0 1-10 0c0-3 2-4 2-7 2 1 3 3 3 5"
	case IconWind:
		return "M3 8h11a3 3 0 1 0-3-3M3 16h15a3 3 0 1 1-3 3M3 12h18"
	case IconShield:
		return "M12 2l8 4v6c0 5-3.5 9-8 10-4.5-1-8-5-8-10V6z"
	default:
		return ""
	}
}

// UnmarshalYAML rejects unknown icon keys while the catalogue loads.
func (i *Icon) UnmarshalYAML(node *yaml.Node) error {
	var key string
	if err := node.Decode(&key); err != nil {
		return err
	}
	icon, err := ParseIcon(key)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*i = icon
	return nil
}

// MarshalText renders the icon by name in JSON responses.
func (i Icon) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
