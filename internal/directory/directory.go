// Package directory supplies the list of selectable stylists. The chat
// core only ever reads from it.
package directory

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ee1922/selecty/internal/domain"
)

// Directory is a read-only stylist roster.
type Directory struct {
	stylists []domain.Stylist
	logger   *slog.Logger
}

type rosterFile struct {
	Stylists []domain.Stylist `yaml:"stylists"`
}

// Load reads a stylist roster from a YAML file. An empty path returns the
// built-in roster; an unreadable or empty file is an error so a typo in
// the config does not silently present an empty salon.
func Load(path string, logger *slog.Logger) (*Directory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return &Directory{stylists: defaultRoster(), logger: logger}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(file.Stylists) == 0 {
		return nil, fmt.Errorf("roster %s lists no stylists", path)
	}

	for i := range file.Stylists {
		if file.Stylists[i].ID == "" {
			return nil, fmt.Errorf("roster %s: stylist %d has no id", path, i)
		}
	}

	logger.Info("stylist roster loaded", "path", path, "count", len(file.Stylists))
	return &Directory{stylists: file.Stylists, logger: logger}, nil
}

// All returns every stylist, available or not, in roster order.
func (d *Directory) All() []domain.Stylist {
	out := make([]domain.Stylist, len(d.stylists))
	copy(out, d.stylists)
	return out
}

// Available returns only the stylists currently taking consultations.
func (d *Directory) Available() []domain.Stylist {
	var out []domain.Stylist
	for _, s := range d.stylists {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

// ByID looks up a stylist by identity.
func (d *Directory) ByID(id string) (domain.Stylist, bool) {
	for _, s := range d.stylists {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Stylist{}, false
}

// defaultRoster mirrors the demo salon the product ships with.
func defaultRoster() []domain.Stylist {
	return []domain.Stylist{
		{ID: "hanako", Name: "山田花子", Title: "トップスタイリスト", Bio: "カラーとショートカットが得意です。", Available: true},
		{ID: "mei", Name: "佐藤メイ", Title: "スタイリスト", Bio: "パーマ・トリートメント担当。", Available: true},
		{ID: "kaito", Name: "鈴木海斗", Title: "スタイリスト", Bio: "メンズカット中心。", Available: false},
	}
}
