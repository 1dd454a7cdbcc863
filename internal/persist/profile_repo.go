package persist

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ProfileStore is the async blob store for player upgrade profiles. Both
// operations are fallible; callers log failures and continue — a failed load
// means defaults, a failed save loses that player's delta. Load returns
// (nil, nil) for players with no stored profile yet.
type ProfileStore interface {
	Load(ctx context.Context, playerID int64) (*ProfileRow, error)
	Save(ctx context.Context, row *ProfileRow) error
}

// RewardRow is one reward holding inside the rewards JSONB column.
type RewardRow struct {
	Count int64   `json:"count"`
	CPS   float64 `json:"cps"`
}

// ProfileRow mirrors one row of the profiles table.
type ProfileRow struct {
	PlayerID   int64
	Name       string
	Stats      map[string]float64
	Rewards    map[string]RewardRow
	Gems       int64
	BestReward float64
}

// ProfileRepo is the PostgreSQL ProfileStore.
type ProfileRepo struct {
	db *DB
}

var _ ProfileStore = (*ProfileRepo)(nil)

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Load(ctx context.Context, playerID int64) (*ProfileRow, error) {
	var (
		row        ProfileRow
		rawStats   []byte
		rawRewards []byte
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT player_id, display_name,
		        COALESCE(stats, '{}'::jsonb),
		        COALESCE(rewards, '{}'::jsonb),
		        gems, best_reward
		 FROM profiles
		 WHERE player_id = $1`, playerID,
	).Scan(&row.PlayerID, &row.Name, &rawStats, &rawRewards, &row.Gems, &row.BestReward)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawStats, &row.Stats); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawRewards, &row.Rewards); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ProfileRepo) Save(ctx context.Context, row *ProfileRow) error {
	stats, err := json.Marshal(row.Stats)
	if err != nil {
		return err
	}
	rewards, err := json.Marshal(row.Rewards)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO profiles (player_id, display_name, stats, rewards, gems, best_reward, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (player_id) DO UPDATE SET
		     display_name = EXCLUDED.display_name,
		     stats        = EXCLUDED.stats,
		     rewards      = EXCLUDED.rewards,
		     gems         = EXCLUDED.gems,
		     best_reward  = EXCLUDED.best_reward,
		     updated_at   = NOW()`,
		row.PlayerID, row.Name, stats, rewards, row.Gems, row.BestReward,
	)
	return err
}
