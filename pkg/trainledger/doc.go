/*
Package trainledger keeps track of reinforcement-learning training runs and
their checkpoints.

# Overview

Each model family (A2C, PPO) has a root directory holding one directory per
run. Runs are named Run<N> with N allocated sequentially, and each run holds
checkpoint artifacts named after the cumulative step count they were taken
at:

	models/
	    A2C/
	        Run1/
	            3000.zip
	            6000.zip
	        Run2/
	    PPO/
	        Run1/

The ledger answers three questions for a training process: which run to
write to, which checkpoint (if any) to load, and where the next checkpoint
goes.

# Basic Usage

	ledger, err := trainledger.Open(config.DefaultSettings())
	if err != nil {
	    log.Fatal(err)
	}
	defer ledger.Close()

	rc, err := ledger.Resolve(ctx, lifecycle.Request{
	    Family: family.PPO,
	    Resume: true,
	    Select: lifecycle.SelectByID(3),
	})
	if err != nil {
	    log.Fatal(err)
	}
	if rc.Fresh() {
	    // create a new learner
	} else {
	    // load rc.Checkpoint.Path
	}

Train combines resolution, learner preparation and the learn-then-save loop:

	rc, saved, err := ledger.Train(ctx, req, env, loader, factory)

# Numbering

Families are numbered either by counting run directories (the default) or
by a persisted counter kept in a JSON file or a SQLite database. Both refuse
an identifier whose directory already exists and report a
NumberingConflictError instead of overwriting.

# Resolution

With Resume false a new run is allocated. With Resume true the selected
run's latest checkpoint is returned; a family with no runs falls back to a
caller-supplied checkpoint path or to a fresh run. Resolution never writes
to disk: a fresh run's directory appears with its first checkpoint.

# Observability

	ledger, err := trainledger.Open(settings,
	    trainledger.WithLogger(slog.Default()),
	    trainledger.WithMetrics(true),
	    trainledger.WithTracing(true),
	)

Metrics and spans go to the global OpenTelemetry providers.

# Error Handling

Errors are categorized by package errors:

	switch tlerrors.Categorize(err) {
	case tlerrors.CategoryCallerError:
	    // numbering conflict or duplicate step: fix the layout
	case tlerrors.CategoryPropagate:
	    // I/O failure or unreadable checkpoint
	}
*/
package trainledger
