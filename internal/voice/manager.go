package voice

import (
	"log"
	"sort"
	"sync"

	"dynamisaudio/acoustic"
)

// VoiceHandle is the narrow capability the manager needs from whatever the
// voicechain package loans out on promotion: a bindable slot plus the
// means to release it. The voicechain package's *Pool satisfies this.
type VoiceHandle interface {
	// Bind attaches emitterID to a free voice and returns its slot id, or
	// ok=false if the pool is exhausted.
	Bind(emitterID uint64) (slotID int32, ok bool)
	// Release returns the voice bound to slotID to the pool.
	Release(slotID int32)
}

// Manager runs the dual-pool promotion/demotion budget evaluation (spec
// §4.F). CriticalReserve and NormalBudget are fixed at construction and
// validated per spec §7 (critical_reserve <= physical_budget/4).
type Manager struct {
	mu sync.Mutex

	emitters map[ID]*Emitter

	criticalReserve int
	normalBudget    int

	pool VoiceHandle

	candidatesTrimmedTotal uint64
	loggedTrimOnce         bool
}

// NewManager constructs a Manager. physicalBudget is the total voice slot
// count; criticalReserve must be <= physicalBudget/4 (spec §4.A), a
// construction-time contract violation otherwise.
func NewManager(physicalBudget, criticalReserve int, pool VoiceHandle) *Manager {
	if criticalReserve*4 > physicalBudget {
		panic("voice: critical_reserve exceeds physical_budget/4")
	}
	if physicalBudget < 1 {
		panic("voice: physical_budget must be >= 1")
	}
	return &Manager{
		emitters:        make(map[ID]*Emitter),
		criticalReserve: criticalReserve,
		normalBudget:    physicalBudget - criticalReserve,
		pool:            pool,
	}
}

// Add registers an emitter with the manager so it is considered during the
// next EvaluateBudget.
func (m *Manager) Add(e *Emitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitters[e.ID] = e
}

// Remove unregisters an emitter, demoting it first if it held a voice.
func (m *Manager) Remove(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.emitters[id]
	if !ok {
		return
	}
	if e.State() == StatePhysical {
		m.demote(e)
	}
	delete(m.emitters, id)
}

// Demote returns id's voice to the pool and transitions it PHYSICAL ->
// VIRTUAL, if it is currently PHYSICAL. Used by the mixer's completion
// drain when a one-shot voice finishes (spec §4.J step 6: "release the
// voice and tell the voice manager to demote the emitter").
func (m *Manager) Demote(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.emitters[id]
	if !ok || e.State() != StatePhysical {
		return
	}
	m.demote(e)
}

// poolHint, when >= 0, further trims promotions per cycle below the pool's
// own capacity (spec §4.F: "externally supplied voice-pool capacity hint").
// Pass -1 for no additional trim.
func (m *Manager) EvaluateBudget(poolHint int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var critical, normal []*Emitter
	for _, e := range m.emitters {
		if e.State() != StateVirtual && e.State() != StatePhysical {
			continue
		}
		if e.Importance == ImportanceCritical {
			critical = append(critical, e)
		} else {
			normal = append(normal, e)
		}
	}

	m.evaluatePool(critical, m.criticalReserve, poolHint)
	m.evaluatePool(normal, m.normalBudget, poolHint)
}

// evaluatePool applies demote-then-promote to one independent pool: demote
// any PHYSICAL emitter scoring below DemoteThreshold or ranked beyond
// capacity, then promote the highest-scoring VIRTUAL emitters scoring at
// or above PromoteThreshold until capacity is reached (spec §4.F).
func (m *Manager) evaluatePool(pool []*Emitter, capacity, poolHint int) {
	sort.Slice(pool, func(i, j int) bool { return Compare(pool[i], pool[j]) < 0 })

	physicalCount := 0
	for i, e := range pool {
		if e.State() != StatePhysical {
			continue
		}
		belowThreshold := e.Score() < acoustic.DemoteThreshold
		beyondCapacity := i >= capacity
		if belowThreshold || beyondCapacity {
			m.demote(e)
			continue
		}
		physicalCount++
	}

	effectiveCapacity := capacity
	if poolHint >= 0 && poolHint < effectiveCapacity {
		effectiveCapacity = poolHint
	}

	for _, e := range pool {
		if physicalCount >= capacity {
			break
		}
		if e.State() != StateVirtual {
			continue
		}
		if e.Score() < acoustic.PromoteThreshold {
			break // pool is sorted descending by score; no later candidate qualifies
		}
		if physicalCount >= effectiveCapacity {
			m.logTrim()
			continue
		}
		if m.promote(e) {
			physicalCount++
		}
	}
}

func (m *Manager) promote(e *Emitter) bool {
	slotID, ok := m.pool.Bind(uint64(e.ID))
	if !ok {
		return false
	}
	e.SlotID.Store(slotID)
	e.setState(StatePhysical)
	return true
}

func (m *Manager) demote(e *Emitter) {
	slotID := e.SlotID.Load()
	if slotID >= 0 {
		m.pool.Release(slotID)
	}
	e.SlotID.Store(-1)
	e.SetReflectionSink(nil)
	e.setState(StateVirtual)
}

func (m *Manager) logTrim() {
	m.candidatesTrimmedTotal++
	if !m.loggedTrimOnce {
		m.loggedTrimOnce = true
		log.Printf("[voice] promotion candidates trimmed by voice-pool capacity hint (operator action: raise physical_budget or reduce concurrent emitter count)")
	}
}

// TrimmedCandidates returns the running total of promotion candidates
// deferred by a voice-pool capacity hint.
func (m *Manager) TrimmedCandidates() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candidatesTrimmedTotal
}
