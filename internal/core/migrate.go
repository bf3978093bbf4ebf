package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/storage"
)

// CurrentSchemaVersion is the snapshot layout written by this build.
//
// Versions:
//
//	0  players and teams only, no meta entry. Older players may lack
//	   gender and department.
//	1  every player carries gender and department.
//	2  meta carries the id counters.
//
// Default-fill table applied by the upgrade steps:
//
//	field               version  default when missing
//	player.gender       1        "male" (also when null or blank)
//	player.department   1        ""
//	meta.nextPlayerId   2        max(player ids) + 1, 1 when empty
//	meta.nextTeamId     2        max(team ids) + 1, 1 when empty
//
// Records that already carry a field are left untouched.
const CurrentSchemaVersion = 2

// Meta is the stored bookkeeping entry.
type Meta struct {
	SchemaVersion int `json:"schemaVersion"`
	NextPlayerID  int `json:"nextPlayerId"`
	NextTeamID    int `json:"nextTeamId"`
}

// loaded is the outcome of reading the store.
type loaded struct {
	state    auction.State
	from     int
	seeded   bool
	migrated bool
}

// loadState reads the snapshot, seeding collections that are absent and
// upgrading older layouts.
func loadState(ctx context.Context, kv storage.KV, logger *slog.Logger) (loaded, error) {
	var out loaded

	rawPlayers, havePlayers, err := kv.Get(ctx, storage.KeyPlayers)
	if err != nil {
		return out, fmt.Errorf("storage read failed: players: %w", err)
	}
	rawTeams, haveTeams, err := kv.Get(ctx, storage.KeyTeams)
	if err != nil {
		return out, fmt.Errorf("storage read failed: teams: %w", err)
	}
	rawMeta, haveMeta, err := kv.Get(ctx, storage.KeyMeta)
	if err != nil {
		return out, fmt.Errorf("storage read failed: meta: %w", err)
	}

	var meta Meta
	if haveMeta {
		if err := json.Unmarshal(rawMeta, &meta); err != nil {
			return out, fmt.Errorf("corrupt snapshot: meta: %w", err)
		}
	}
	out.from = meta.SchemaVersion
	if out.from > CurrentSchemaVersion {
		return out, fmt.Errorf("corrupt snapshot: schema version %d is newer than %d", out.from, CurrentSchemaVersion)
	}

	var st auction.State

	if havePlayers {
		if out.from < 1 {
			if rawPlayers, err = fillPlayerDefaults(rawPlayers); err != nil {
				return out, err
			}
		}
		if err := json.Unmarshal(rawPlayers, &st.Players); err != nil {
			return out, fmt.Errorf("corrupt snapshot: players: %w", err)
		}
		defaultGenders(st.Players)
	} else {
		st.Players = auction.MergeCaptains(auction.SeedPlayers())
		out.seeded = true
	}

	if haveTeams {
		if err := json.Unmarshal(rawTeams, &st.Teams); err != nil {
			return out, fmt.Errorf("corrupt snapshot: teams: %w", err)
		}
	} else {
		st.Teams = auction.SeedTeams()
		out.seeded = true
	}

	if out.from >= 2 {
		st.Counters = auction.Counters{NextPlayerID: meta.NextPlayerID, NextTeamID: meta.NextTeamID}
	}
	// Upgrading to v2 derives the counters from the ids present; for a
	// current snapshot this only repairs counters that fell behind.
	st = st.SyncCounters()

	if st.Players == nil {
		st.Players = []auction.Player{}
	}
	if st.Teams == nil {
		st.Teams = []auction.Team{}
	}

	out.state = st
	out.migrated = haveMeta && out.from < CurrentSchemaVersion || !haveMeta && (havePlayers || haveTeams)

	if out.migrated {
		logger.Info("snapshot migrated", "from_version", out.from, "to_version", CurrentSchemaVersion)
	}
	for _, v := range st.CheckLedger() {
		logger.Warn("ledger inconsistency in stored snapshot", "error", v)
	}
	return out, nil
}

// fillPlayerDefaults adds the v1 fields to raw player records.
func fillPlayerDefaults(raw []byte) ([]byte, error) {
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("corrupt snapshot: players: %w", err)
	}
	for _, rec := range records {
		if g, _ := rec["gender"].(string); g == "" {
			rec["gender"] = string(auction.Male)
		}
		if _, ok := rec["department"]; !ok {
			rec["department"] = ""
		}
	}
	return json.Marshal(records)
}

// defaultGenders treats a blank gender as male on every load.
func defaultGenders(players []auction.Player) {
	for i := range players {
		if players[i].Gender == "" {
			players[i].Gender = auction.Male
		}
	}
}

// encodeState renders the three snapshot entries.
func encodeState(st auction.State) (map[string][]byte, error) {
	players, err := json.Marshal(st.Players)
	if err != nil {
		return nil, fmt.Errorf("encode players: %w", err)
	}
	teams, err := json.Marshal(st.Teams)
	if err != nil {
		return nil, fmt.Errorf("encode teams: %w", err)
	}
	meta, err := json.Marshal(Meta{
		SchemaVersion: CurrentSchemaVersion,
		NextPlayerID:  st.Counters.NextPlayerID,
		NextTeamID:    st.Counters.NextTeamID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}
	return map[string][]byte{
		storage.KeyPlayers: players,
		storage.KeyTeams:   teams,
		storage.KeyMeta:    meta,
	}, nil
}
