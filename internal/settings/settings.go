// Package settings resolves reader appearance settings per user.
//
// Priority: database > environment > default. The environment variables are
// READER_THEME, READER_FONT, READER_FONT_SIZE and READER_MARGIN.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mrlokans/rustypages/internal/entities"
)

var ErrInvalidValue = errors.New("invalid setting value")

// Reader holds the appearance of the reading view.
type Reader struct {
	Theme    string `json:"theme"`
	Font     string `json:"font"`
	FontSize string `json:"fontSize"`
	Margin   string `json:"margin"`
}

// Defaults returns the settings of a user who never changed anything.
func Defaults() Reader {
	return Reader{Theme: "light", Font: "serif", FontSize: "medium", Margin: "medium"}
}

var allowed = map[string][]string{
	entities.SettingKeyTheme:    {"light", "sepia", "dark"},
	entities.SettingKeyFont:     {"serif", "sans-serif", "dyslexic"},
	entities.SettingKeyFontSize: {"small", "medium", "large"},
	entities.SettingKeyMargin:   {"small", "medium", "large"},
}

// Keys lists the setting keys in display order.
var Keys = []string{
	entities.SettingKeyTheme,
	entities.SettingKeyFont,
	entities.SettingKeyFontSize,
	entities.SettingKeyMargin,
}

// Validate reports whether value is allowed for key.
func Validate(key, value string) error {
	values, ok := allowed[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", ErrInvalidValue, key)
	}
	for _, v := range values {
		if v == value {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s", ErrInvalidValue, key, strings.Join(values, ", "))
}

// Validate checks every field of r.
func (r Reader) Validate() error {
	for key, value := range r.values() {
		if err := Validate(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (r Reader) values() map[string]string {
	return map[string]string{
		entities.SettingKeyTheme:    r.Theme,
		entities.SettingKeyFont:     r.Font,
		entities.SettingKeyFontSize: r.FontSize,
		entities.SettingKeyMargin:   r.Margin,
	}
}

func (r *Reader) set(key, value string) {
	switch key {
	case entities.SettingKeyTheme:
		r.Theme = value
	case entities.SettingKeyFont:
		r.Font = value
	case entities.SettingKeyFontSize:
		r.FontSize = value
	case entities.SettingKeyMargin:
		r.Margin = value
	}
}

func envKey(key string) string {
	return "READER_" + strings.ToUpper(key)
}

// Repository is the settings storage used by Store.
type Repository interface {
	GetSettings(userID uint) (map[string]string, error)
	SetSettings(userID uint, values map[string]string) error
	DeleteSetting(userID uint, key string) error
}

// Store reads and writes reader settings.
type Store struct {
	repo   Repository
	getenv func(string) string
}

func New(repo Repository) *Store {
	return &Store{repo: repo, getenv: os.Getenv}
}

// Get returns the effective settings of a user. Stored values that are no
// longer valid are ignored.
func (s *Store) Get(userID uint) (Reader, error) {
	info, err := s.Info(userID)
	if err != nil {
		return Reader{}, err
	}
	return info.Settings, nil
}

// Info is the effective settings of a user with the source of each value.
type Info struct {
	Settings Reader            `json:"settings"`
	Sources  map[string]string `json:"sources"` // "database", "environment", or "default"
}

func (s *Store) Info(userID uint) (Info, error) {
	stored, err := s.repo.GetSettings(userID)
	if err != nil {
		return Info{}, fmt.Errorf("failed to load settings: %w", err)
	}

	info := Info{Settings: Defaults(), Sources: make(map[string]string, len(Keys))}
	for _, key := range Keys {
		info.Sources[key] = "default"
		if v := s.getenv(envKey(key)); v != "" && Validate(key, v) == nil {
			info.Settings.set(key, v)
			info.Sources[key] = "environment"
		}
		if v, ok := stored[key]; ok && Validate(key, v) == nil {
			info.Settings.set(key, v)
			info.Sources[key] = "database"
		}
	}
	return info, nil
}

// Update validates and stores the given values. Keys not present are left
// unchanged.
func (s *Store) Update(userID uint, values map[string]string) (Reader, error) {
	for key, value := range values {
		if err := Validate(key, value); err != nil {
			return Reader{}, err
		}
	}
	if err := s.repo.SetSettings(userID, values); err != nil {
		return Reader{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return s.Get(userID)
}

// Reset removes the stored values of a user.
func (s *Store) Reset(userID uint) error {
	for _, key := range Keys {
		if err := s.repo.DeleteSetting(userID, key); err != nil {
			return err
		}
	}
	return nil
}
