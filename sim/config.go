package sim

// Config groups the construction parameters of a Simulation.
type Config struct {
	Name          string // instance name; Registry assigns a uuid when empty
	MaxFacilities int    // upper bound on CreateFacility calls (0 = unbounded)
}
