/*
Package config loads ledger settings from YAML or JSON.

# Overview

A document is decoded into a Config, a map accessor whose getters fall back
to a default on missing keys or wrong types, then into Settings:

	root: models
	counter_dir: models
	artifact_pattern: "*.zip"
	empty_run_policy: reuse_first   # or allocate
	families:
	  A2C: {dir: A2C, strategy: dircount}
	  PPO: {dir: PPO, strategy: counter, counter_backend: json}  # or sqlite
	training: {unit: 3000, iterations: 29}

Every key is optional. DefaultSettings is what an empty document yields.

# Loading

	settings, err := config.Load("trainledger.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	root := settings.FamilyRoot(family.PPO) // models/PPO

The format follows the file extension (see FormatOf). ReadFile and Parse
return the raw Config when only a few keys are needed.
*/
package config
