package botpost

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Persona is the fixed bot identity attached to every generated post. It
// also feeds the system prompt, so changing the file changes the bot's
// voice without a rebuild.
type Persona struct {
	Nickname string `yaml:"nickname" json:"nickname"`
	Handle   string `yaml:"handle" json:"handle"`
	Bio      string `yaml:"bio" json:"bio,omitempty"`
	Tone     string `yaml:"tone" json:"-"`
}

// DefaultPersona is the compiled-in identity used when no persona file is
// configured.
func DefaultPersona() Persona {
	return Persona{
		Nickname: "Sobot",
		Handle:   "sobot",
		Bio:      "A friendly community member who loves joining conversations.",
		Tone:     "casual, warm, and a little playful",
	}
}

// LoadPersona reads a persona YAML file. An empty path or a missing file
// falls back to DefaultPersona; empty fields in the file inherit defaults.
func LoadPersona(path string) (Persona, error) {
	def := DefaultPersona()
	if path == "" {
		return def, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return def, nil
		}
		return Persona{}, fmt.Errorf("persona: read %q: %w", path, err)
	}

	var p Persona
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Persona{}, fmt.Errorf("persona: parse %q: %w", path, err)
	}

	if p.Nickname == "" {
		p.Nickname = def.Nickname
	}
	if p.Handle == "" {
		p.Handle = def.Handle
	}
	if p.Bio == "" {
		p.Bio = def.Bio
	}
	if p.Tone == "" {
		p.Tone = def.Tone
	}
	return p, nil
}
