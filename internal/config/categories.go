package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Kerhoff/eventsync/internal/models"
)

const defaultColor = "#3b5998"

// CategoryConfig is the user-editable policy of one category.
type CategoryConfig struct {
	// Enabled controls whether the category gets a local container at all.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// DisplayName is shown for the local container.
	DisplayName string `yaml:"display_name" json:"display_name"`
	// Color is the container color, e.g. "#3b5998".
	Color string `yaml:"color" json:"color"`
	// Reminders are minute offsets before start for timed events.
	Reminders []int `yaml:"reminders" json:"reminders"`
	// AllDayReminders are minute offsets used for all-day events.
	AllDayReminders []int `yaml:"all_day_reminders" json:"all_day_reminders"`
}

// Categories is the category policy file.
type Categories struct {
	Categories map[models.Category]*CategoryConfig `yaml:"categories" json:"categories"`

	// LegacyContainers are container names from older releases that are
	// removed before every pass.
	LegacyContainers []string `yaml:"legacy_containers" json:"legacy_containers"`
}

var defaultDisplayNames = map[models.Category]string{
	models.CategoryAttending:  "Attending",
	models.CategoryTentative:  "Maybe attending",
	models.CategoryDeclined:   "Declined",
	models.CategoryNoResponse: "Not responded",
	models.CategoryRecurring:  "Birthdays",
}

func defaultCategory(c models.Category) *CategoryConfig {
	return &CategoryConfig{
		Enabled:         true,
		DisplayName:     defaultDisplayNames[c],
		Color:           defaultColor,
		Reminders:       []int{60},
		AllDayReminders: []int{720},
	}
}

// DefaultCategories returns every category enabled with default reminders.
func DefaultCategories() *Categories {
	cats := &Categories{
		Categories:       make(map[models.Category]*CategoryConfig, len(models.Categories)),
		LegacyContainers: []string{"birthday"},
	}
	for _, c := range models.Categories {
		cats.Categories[c] = defaultCategory(c)
	}
	return cats
}

// Normalize fills in missing categories and fields, drops unknown categories
// and negative offsets, and sorts and dedups offset lists.
func (c *Categories) Normalize() {
	if c.Categories == nil {
		c.Categories = make(map[models.Category]*CategoryConfig, len(models.Categories))
	}
	for name := range c.Categories {
		if !name.Valid() {
			delete(c.Categories, name)
		}
	}
	for _, name := range models.Categories {
		cc, ok := c.Categories[name]
		if !ok || cc == nil {
			c.Categories[name] = defaultCategory(name)
			continue
		}
		if cc.DisplayName == "" {
			cc.DisplayName = defaultDisplayNames[name]
		}
		if cc.Color == "" {
			cc.Color = defaultColor
		}
		cc.Reminders = normalizeOffsets(cc.Reminders)
		cc.AllDayReminders = normalizeOffsets(cc.AllDayReminders)
	}
	if c.LegacyContainers == nil {
		c.LegacyContainers = []string{}
	}
}

// For returns the policy of category name; unknown names get a disabled policy.
func (c *Categories) For(name models.Category) CategoryConfig {
	if cc, ok := c.Categories[name]; ok && cc != nil {
		return *cc
	}
	return CategoryConfig{}
}

func normalizeOffsets(offsets []int) []int {
	seen := make(map[int]struct{}, len(offsets))
	out := make([]int, 0, len(offsets))
	for _, o := range offsets {
		if o < 0 {
			continue
		}
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	sort.Ints(out)
	return out
}

// LoadCategories reads the category policy from a YAML file. A missing file
// is created with the defaults (0600) and the defaults are returned.
func LoadCategories(path string) (*Categories, error) {
	if path == "" {
		return nil, errors.New("categories path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cats := DefaultCategories()
			if err := SaveCategories(path, cats); err != nil {
				return cats, err
			}
			return cats, nil
		}
		return nil, err
	}

	var cats Categories
	if err := yaml.Unmarshal(data, &cats); err != nil {
		return nil, err
	}
	cats.Normalize()

	return &cats, nil
}

// SaveCategories writes cats to path atomically via a temp file and rename.
func SaveCategories(path string, cats *Categories) error {
	if path == "" {
		return errors.New("categories path is empty")
	}
	if cats == nil {
		return errors.New("categories is nil")
	}

	cats.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cats)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventsync-categories-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Clone returns a deep copy of c.
func (c *Categories) Clone() *Categories {
	out := &Categories{
		Categories:       make(map[models.Category]*CategoryConfig, len(c.Categories)),
		LegacyContainers: append([]string(nil), c.LegacyContainers...),
	}
	for name, cc := range c.Categories {
		if cc == nil {
			continue
		}
		copied := *cc
		copied.Reminders = append([]int(nil), cc.Reminders...)
		copied.AllDayReminders = append([]int(nil), cc.AllDayReminders...)
		out.Categories[name] = &copied
	}
	return out
}

// Snapshot returns a copy that is safe to read while c changes.
func (c *Categories) Snapshot() *Categories {
	return c.Clone()
}
