package network

import (
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and scenario produce identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// SubsystemArrivals returns the RNG subsystem name for a class's interarrival times.
func SubsystemArrivals(class string) string {
	return "arrivals/" + class
}

// SubsystemService returns the RNG subsystem name for a class's service times.
func SubsystemService(class string) string {
	return "service/" + class
}

// SubsystemFailure returns the RNG subsystem name for a link's failure process.
func SubsystemFailure(link string) string {
	return "failure/" + link
}

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
// Each subsystem is seeded with masterSeed XOR xxhash64(subsystemName), so
// adding a class or a link never perturbs the streams of the others.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derivedSeed := int64(p.key) ^ int64(xxhash.Sum64String(name))
	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}
