// Package registry maps model families to their training runs.
//
// The registry is a view over the filesystem, not a cache. Each family has
// a root directory holding one Run<N> directory per run:
//
//	models/
//	    A2C/
//	        Run1/3000.zip
//	        Run1/6000.zip
//	        Run2/3000.zip
//	    PPO/
//	        Run1/3000.zip
//
// # Basic Usage
//
//	reg, err := registry.New(map[family.Family]registry.FamilySpec{
//	    family.A2C: {Root: "models/A2C"},
//	    family.PPO: {Root: "models/PPO"},
//	})
//
//	runs, err := reg.ListRuns(family.A2C)
//	latest, err := reg.Latest(runs[0]) // nil if the run is empty
//
// # Creating Runs
//
// Create only allocates an identifier. The run directory appears when the
// first checkpoint is written, so an interrupted session leaves no empty
// run behind:
//
//	run, err := reg.Create(ctx, family.PPO)
//	// run.Dir == "models/PPO/Run2", not yet on disk
//
// With the default DirCount allocator, create the directory (by saving a
// checkpoint) before calling Create again for the same family; otherwise
// both calls return the same identifier.
//
// # Concurrency
//
// The registry assumes one active process per family root. It takes no
// locks and does not defend against two processes allocating at once.
package registry
