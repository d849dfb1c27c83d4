// Package training drives a learner through fixed-size learn-then-save
// iterations and writes one checkpoint per iteration into the resolved run.
//
// The learner and environment are opaque. The package only needs a learner
// to learn for a number of steps and to serialize itself.
package training

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/randalmurphal/trainledger/pkg/trainledger/checkpoint"
	tlerrors "github.com/randalmurphal/trainledger/pkg/trainledger/errors"
	"github.com/randalmurphal/trainledger/pkg/trainledger/lifecycle"
)

// Environment is the simulation a learner trains against.
type Environment interface {
	Name() string
	Close() error
}

// Learner is a trainable policy.
type Learner interface {
	// Learn advances training by steps environment steps.
	Learn(ctx context.Context, env Environment, steps int64) error

	// Save serializes the learner's full state.
	Save(w io.Writer) error
}

// Loader restores a learner from a checkpoint artifact.
type Loader interface {
	Load(ctx context.Context, path string, env Environment) (Learner, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string, env Environment) (Learner, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, path string, env Environment) (Learner, error) {
	return f(ctx, path, env)
}

// Factory creates an untrained learner.
type Factory interface {
	New(env Environment) Learner
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(env Environment) Learner

// New calls f.
func (f FactoryFunc) New(env Environment) Learner {
	return f(env)
}

// Saver persists checkpoint payloads. *checkpoint.Writer implements it.
type Saver interface {
	Save(ctx context.Context, target checkpoint.Target, step int64, payload io.WriterTo) (checkpoint.Checkpoint, error)
}

var _ Saver = (*checkpoint.Writer)(nil)

// Prepare returns the learner a resolved run context calls for: a new one
// from factory when the context is fresh, otherwise the checkpoint loaded by
// loader. Load failures are reported as MalformedArtifactError.
func Prepare(ctx context.Context, rc lifecycle.RunContext, env Environment, loader Loader, factory Factory) (Learner, error) {
	if rc.Fresh() {
		if factory == nil {
			return nil, fmt.Errorf("fresh run %s needs a learner factory", rc.Run.Name())
		}
		return factory.New(env), nil
	}
	if loader == nil {
		return nil, fmt.Errorf("resuming %s needs a learner loader", rc.Checkpoint.Path)
	}
	learner, err := loader.Load(ctx, rc.Checkpoint.Path, env)
	if err != nil {
		return nil, &tlerrors.MalformedArtifactError{Path: rc.Checkpoint.Path, Err: err}
	}
	if learner == nil {
		return nil, &tlerrors.MalformedArtifactError{
			Path: rc.Checkpoint.Path,
			Err:  errors.New("loader returned no learner"),
		}
	}
	return learner, nil
}

// Payload adapts a learner to the io.WriterTo a checkpoint writer consumes.
func Payload(l Learner) io.WriterTo {
	return learnerPayload{l}
}

type learnerPayload struct {
	learner Learner
}

func (p learnerPayload) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := p.learner.Save(cw)
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
