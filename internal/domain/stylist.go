package domain

// Stylist is a directory entry for a selectable service provider. The chat
// core receives one when a session starts and never mutates it.
type Stylist struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Title     string `yaml:"title,omitempty"`
	Bio       string `yaml:"bio,omitempty"`
	Available bool   `yaml:"available"`
}
