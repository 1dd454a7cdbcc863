package system

import (
	"math"
	"math/rand"

	"github.com/rotclick/server/internal/config"
	"github.com/rotclick/server/internal/world"
)

// damageMultCap bounds multiplicative damage stacking regardless of how many
// upgrade sources a player holds.
const damageMultCap = 2.5

// Stats is a player's resolved combat profile for one click. Chances are in
// percent (0..100 scale).
type Stats struct {
	Damage     float64
	CritChance float64
	CritMult   float64
	GemChance  float64
	GemYield   float64
	CoinFactor float64
	CPSFactor  float64
}

// EffectiveStats resolves a player's upgrade profile against the balance
// defaults. Additive stats are guarded against negative values; the damage
// multiplier is hard-capped at 2.5x.
func EffectiveStats(p *world.Profile, bal *config.BalanceConfig) Stats {
	dmgMult := math.Max(1, p.Stat(world.StatDamageMult))
	if dmgMult > damageMultCap {
		dmgMult = damageMultCap
	}
	damage := (1 +
		math.Max(0, p.Stat(world.StatDamageAdd)) +
		math.Max(0, p.Stat(world.StatPassiveDamageAdd))) * dmgMult

	critChance := bal.BaseCritChance +
		(p.Stat(world.StatCritChanceAdd)+p.Stat(world.StatPassiveCritAdd))*100
	if critChance < 0 {
		critChance = 0
	}

	gemChance := bal.BaseGemChance +
		(p.Stat(world.StatGemDropAdd)+p.Stat(world.StatPassiveGemAdd))*100
	if gemChance < 0 {
		gemChance = 0
	} else if gemChance > 100 {
		gemChance = 100
	}

	critMult := bal.BaseCritMultiplier * math.Max(1,
		p.Stat(world.StatCritMultShop)*p.Stat(world.StatPassiveCritFactor))

	gemYield := math.Max(1,
		math.Max(0, p.Stat(world.StatGemYieldShop))*p.Stat(world.StatPassiveGemYield))
	if override := p.Stat(world.StatGemYieldOverride); override > 0 {
		gemYield = override
	}

	return Stats{
		Damage:     damage,
		CritChance: critChance,
		CritMult:   critMult,
		GemChance:  gemChance,
		GemYield:   gemYield,
		CoinFactor: 1 + math.Max(0, p.Stat(world.StatCoinMultAdd)),
		CPSFactor:  math.Max(1, p.Stat(world.StatPassiveCPS)),
	}
}

// rollPercent rolls 1..100 against a percent chance.
func rollPercent(rng *rand.Rand, chance float64) bool {
	if chance <= 0 {
		return false
	}
	return float64(rng.Intn(100)+1) <= chance
}

// DrawGemAmount draws from the weighted amount table: weights[i] is the
// weight of amount i+1, zero and negative weights excluded. The first bucket
// whose cumulative weight reaches the roll wins. A degenerate table yields 1.
func DrawGemAmount(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 1
	}

	roll := rng.Intn(total) + 1
	cum := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		if roll <= cum {
			return i + 1
		}
	}
	return 1
}

// scaleGems applies the yield factor to a drawn amount: floor, minimum 1.
func scaleGems(amount int, yield float64) int64 {
	n := int64(math.Floor(float64(amount) * yield))
	if n < 1 {
		n = 1
	}
	return n
}
