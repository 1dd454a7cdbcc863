package world

import (
	"math/rand"
	"time"
)

// RespawnTask is a deferred spawn of a template/area pair. Tasks are
// fire-and-forget: nothing cancels them, and the respawn system re-validates
// the template and area when the task comes due.
type RespawnTask struct {
	Template string
	Area     string
	Due      time.Time
}

// State owns every live gameplay collection: connected players, live
// instances, combat states, spawn records, pending respawn tasks, the
// instance pool and the shake throttle. Systems receive a *State and mutate
// it freely. Single-goroutine access only (game loop) — no locks.
type State struct {
	bySession map[uint64]*PlayerInfo
	byPlayer  map[int64]*PlayerInfo

	instances map[int64]*Instance
	instList  []*Instance // iteration order for sweeps

	combat map[int64]*CombatState

	spawnsByArea    map[string][]*SpawnRecord
	spawnByInstance map[int64]*SpawnRecord

	respawnTasks []RespawnTask

	Pool      *Pool
	ShakeGate *Throttle
	Rng       *rand.Rand
}

// NewState creates an empty world state. Tests overwrite Rng with a fixed
// seed for deterministic rolls.
func NewState() *State {
	return &State{
		bySession:       make(map[uint64]*PlayerInfo),
		byPlayer:        make(map[int64]*PlayerInfo),
		instances:       make(map[int64]*Instance),
		combat:          make(map[int64]*CombatState),
		spawnsByArea:    make(map[string][]*SpawnRecord),
		spawnByInstance: make(map[int64]*SpawnRecord),
		Pool:            NewPool(),
		ShakeGate:       NewThrottle(),
		Rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ==================== Players ====================

func (s *State) AddPlayer(p *PlayerInfo) {
	s.bySession[p.SessionID] = p
	s.byPlayer[p.PlayerID] = p
}

// RemovePlayer drops a player by session ID and returns the record, or nil.
func (s *State) RemovePlayer(sessionID uint64) *PlayerInfo {
	p, ok := s.bySession[sessionID]
	if !ok {
		return nil
	}
	delete(s.bySession, sessionID)
	delete(s.byPlayer, p.PlayerID)
	s.ShakeGate.Forget(p.PlayerID)
	return p
}

func (s *State) GetBySession(sessionID uint64) *PlayerInfo {
	return s.bySession[sessionID]
}

func (s *State) GetByPlayerID(playerID int64) *PlayerInfo {
	return s.byPlayer[playerID]
}

// AllPlayers calls fn for every connected player.
func (s *State) AllPlayers(fn func(*PlayerInfo)) {
	for _, p := range s.bySession {
		fn(p)
	}
}

func (s *State) PlayerCount() int {
	return len(s.bySession)
}

// ==================== Instances ====================

func (s *State) AddInstance(inst *Instance) {
	s.instances[inst.ID] = inst
	s.instList = append(s.instList, inst)
}

func (s *State) GetInstance(id int64) *Instance {
	return s.instances[id]
}

// RemoveInstance drops an instance from the live set (swap-delete keeps the
// iteration slice compact).
func (s *State) RemoveInstance(id int64) *Instance {
	inst, ok := s.instances[id]
	if !ok {
		return nil
	}
	delete(s.instances, id)
	for i, it := range s.instList {
		if it.ID == id {
			last := len(s.instList) - 1
			s.instList[i] = s.instList[last]
			s.instList = s.instList[:last]
			break
		}
	}
	return inst
}

// Instances returns the live instance slice for iteration. Callers must not
// hold it across spawn/death mutations.
func (s *State) Instances() []*Instance {
	return s.instList
}

func (s *State) InstanceCount() int {
	return len(s.instances)
}

// ==================== Combat states ====================

func (s *State) Combat(instanceID int64) *CombatState {
	return s.combat[instanceID]
}

func (s *State) SetCombat(instanceID int64, st *CombatState) {
	s.combat[instanceID] = st
}

func (s *State) RemoveCombat(instanceID int64) {
	delete(s.combat, instanceID)
}

// EachCombat calls fn for every combat state. fn may mutate the state but
// must not add or remove entries.
func (s *State) EachCombat(fn func(instanceID int64, st *CombatState)) {
	for id, st := range s.combat {
		fn(id, st)
	}
}

func (s *State) CombatCount() int {
	return len(s.combat)
}

// ==================== Spawn records ====================

func (s *State) AddSpawnRecord(rec *SpawnRecord) {
	s.spawnsByArea[rec.Area] = append(s.spawnsByArea[rec.Area], rec)
	s.spawnByInstance[rec.InstanceID] = rec
}

// RemoveSpawnRecord drops the record for an instance and returns it, or nil.
func (s *State) RemoveSpawnRecord(instanceID int64) *SpawnRecord {
	rec, ok := s.spawnByInstance[instanceID]
	if !ok {
		return nil
	}
	delete(s.spawnByInstance, instanceID)
	list := s.spawnsByArea[rec.Area]
	for i, r := range list {
		if r.InstanceID == instanceID {
			last := len(list) - 1
			list[i] = list[last]
			s.spawnsByArea[rec.Area] = list[:last]
			break
		}
	}
	return rec
}

// SpawnRecords returns the active records in one area (placement neighbors).
func (s *State) SpawnRecords(area string) []*SpawnRecord {
	return s.spawnsByArea[area]
}

func (s *State) SpawnRecordCount() int {
	return len(s.spawnByInstance)
}

// ==================== Respawn tasks ====================

// ScheduleRespawn queues a deferred spawn.
func (s *State) ScheduleRespawn(task RespawnTask) {
	s.respawnTasks = append(s.respawnTasks, task)
}

// DueRespawns removes and returns every task due at now.
func (s *State) DueRespawns(now time.Time) []RespawnTask {
	var due []RespawnTask
	remaining := s.respawnTasks[:0]
	for _, t := range s.respawnTasks {
		if !t.Due.After(now) {
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	s.respawnTasks = remaining
	return due
}

func (s *State) PendingRespawns() int {
	return len(s.respawnTasks)
}
