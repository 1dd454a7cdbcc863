package world

// Upgrade stat keys. Profiles store a flat map so new shop/passive upgrades
// ship without schema changes; missing keys read as 0.
const (
	StatDamageAdd         = "damage_add"
	StatPassiveDamageAdd  = "passive_damage_add"
	StatDamageMult        = "damage_mult"
	StatCritChanceAdd     = "crit_chance_add"
	StatPassiveCritAdd    = "passive_crit_chance_add"
	StatCritMultShop      = "crit_mult_shop"
	StatPassiveCritFactor = "passive_crit_damage_factor"
	StatGemDropAdd        = "gem_drop_add"
	StatPassiveGemAdd     = "passive_gem_drop_add"
	StatGemYieldShop      = "gem_yield_shop"
	StatPassiveGemYield   = "passive_gem_yield_factor"
	StatGemYieldOverride  = "gem_yield_override"
	StatCoinMultAdd       = "coin_mult_add"
	StatPassiveCPS        = "passive_cps_factor"
)

// OwnedReward is one inventory entry: how many of a template the player has
// killed for, and the coin rate recorded at first grant.
type OwnedReward struct {
	Count int64   `json:"count"`
	CPS   float64 `json:"cps"`
}

// Profile is a player's persisted upgrade stats and reward holdings.
// Owned by the session; loaded async on join, saved async on leave/shutdown.
type Profile struct {
	Stats      map[string]float64      `json:"stats"`
	Rewards    map[string]*OwnedReward `json:"rewards"`
	Gems       int64                   `json:"gems"`
	BestReward float64                 `json:"best_reward"`
}

// NewProfile returns an empty default profile.
func NewProfile() *Profile {
	return &Profile{
		Stats:   make(map[string]float64),
		Rewards: make(map[string]*OwnedReward),
	}
}

// Stat returns a named stat, 0 when unset.
func (p *Profile) Stat(name string) float64 {
	return p.Stats[name]
}

// GrantReward credits one kill of a template. The coin value is recorded on
// the first grant only; the best-ever value is kept as a high-water mark.
func (p *Profile) GrantReward(template string, coinValue float64) *OwnedReward {
	r := p.Rewards[template]
	if r == nil {
		r = &OwnedReward{Count: 1, CPS: coinValue}
		p.Rewards[template] = r
	} else {
		r.Count++
	}
	if coinValue > p.BestReward {
		p.BestReward = coinValue
	}
	return r
}

// AddGems credits gem currency.
func (p *Profile) AddGems(n int64) {
	p.Gems += n
}
