// Package tuning loads the tracker's runtime configuration from
// tracker.yaml. Flags in cmd/tracker override individual fields.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// Category and game version select the objective catalogue.
	Category    string `yaml:"category"`
	GameVersion string `yaml:"game_version"`

	// SavesDir holds the world save directory to track. InstanceDir is
	// the game instance root, used for the live log.
	SavesDir    string `yaml:"saves_dir"`
	InstanceDir string `yaml:"instance_dir"`

	// DataDir receives archives and the history index.
	DataDir string `yaml:"data_dir"`

	PollIntervalMs     int `yaml:"poll_interval_ms"`
	ArchiveEveryPasses int `yaml:"archive_every_passes"`

	// MainPlayer optionally pins the primary tracked player (uuid);
	// MainPlayerName bypasses identity resolution for death scanning.
	MainPlayer     string `yaml:"main_player"`
	MainPlayerName string `yaml:"main_player_name"`

	ListenAddr string `yaml:"listen_addr"`
	DisableDB  bool   `yaml:"disable_db"`
}

func Defaults() Tuning {
	return Tuning{
		Category:           "all_advancements",
		GameVersion:        "1.16",
		DataDir:            "./data",
		PollIntervalMs:     1000,
		ArchiveEveryPasses: 30,
		ListenAddr:         ":8125",
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tracker.yaml: %w", err)
	}
	return t, nil
}
