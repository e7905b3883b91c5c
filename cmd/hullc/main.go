// Copyright © 2024 Galvanized Logic Inc.

// Command hullc is spec line 266's hull_compiler CLI: given a model
// name, it ensures a fresh collision-cache entry exists for every hull
// the model's PhysicsInfo declares, plus a default "convex<i>" hull for
// every mesh the model has that PhysicsInfo doesn't name, then touches
// cache/collision/<model_name> as a completion marker. Exit codes
// reproduce original_source/hull_compiler/main.cc verbatim
// (SPEC_FULL.md §D note #5): 0 success, 1 model or arguments missing.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumenforge/lumen/asset"
	"github.com/lumenforge/lumen/config"
	"github.com/lumenforge/lumen/hull"
)

// Models is the GLTF/GLB model source this command builds hulls
// against. Binary container parsing is an explicit Non-goal (spec §1);
// a deployment linking this command in must set Models to a concrete
// asset.ModelSource before main runs (e.g. from an init() in a build-
// tag-gated file), the same external-collaborator contract
// sim.Runtime and asset.LoadScene's caller already depend on.
var Models asset.ModelSource

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(os.Stderr, "usage: hullc <model_name>")
		return 1
	}
	modelName := args[0]

	if Models == nil {
		fmt.Fprintln(os.Stderr, "hullc: no model source wired (cmd/hullc.Models is nil)")
		return 1
	}

	cfg := config.Default()
	locator := asset.NewLocator()
	cache := hull.NewCache(cfg.HullCacheDir, cfg.HullCacheTTL)

	updated, err := compile(modelName, Models, locator, cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hullc: %s: %v\n", modelName, err)
		return 1
	}

	markerPath := filepath.Join(cfg.HullCacheDir, modelName)
	if _, statErr := os.Stat(markerPath); updated || os.IsNotExist(statErr) {
		if err := touch(markerPath); err != nil {
			fmt.Fprintf(os.Stderr, "hullc: %s: %v\n", modelName, err)
			return 1
		}
	}
	return 0
}

// compile ensures every hull modelName's PhysicsInfo declares, and a
// default "convex<i>" hull for every mesh index PhysicsInfo doesn't
// otherwise name, has a resolvable cache entry. Returns whether any
// entry was newly built (a cache hit never counts as an update), the
// same "updated" bookkeeping original_source/hull_compiler/main.cc uses
// to decide whether the completion marker needs touching.
func compile(modelName string, models asset.ModelSource, locator *asset.Locator, cache *hull.Cache) (bool, error) {
	raw, err := locator.Read("PHYSICSINFO", modelName+".physicsinfo.json")
	info := asset.PhysicsInfo{}
	if err == nil {
		info, err = asset.LoadPhysicsInfo(modelName, raw, func(msg string) {
			fmt.Fprintln(os.Stderr, "hullc:", msg)
		})
		if err != nil {
			return false, fmt.Errorf("physicsinfo: %w", err)
		}
	}

	modelHash, err := models.ContentHash(modelName)
	if err != nil {
		return false, fmt.Errorf("model %q: %w", modelName, err)
	}

	meshCount, err := models.MeshCount(modelName)
	if err != nil {
		return false, fmt.Errorf("model %q: %w", modelName, err)
	}

	named := make(map[string]bool, len(info))
	for name := range info {
		named[name] = true
	}

	updated := false
	build := func(hullName string, meshIndex int, settings hull.Settings) error {
		built, err := buildOne(modelName, hullName, meshIndex, settings, modelHash, models, cache)
		if err != nil {
			return err
		}
		if built {
			updated = true
		}
		return nil
	}

	for name, entry := range info {
		if err := build(name, entry.MeshIndex, entry.Settings); err != nil {
			return updated, fmt.Errorf("hull %q: %w", name, err)
		}
	}
	for i := 0; i < meshCount; i++ {
		hullName := fmt.Sprintf("convex%d", i)
		if named[hullName] {
			continue
		}
		if err := build(hullName, i, hull.DefaultSettings()); err != nil {
			return updated, fmt.Errorf("hull %q: %w", hullName, err)
		}
	}
	return updated, nil
}

// buildOne resolves one hull name's cache entry, reporting whether the
// entry was freshly built (a disk or in-memory cache hit is not an
// update). The cache key is "<modelName>/<hullName>", the same
// composition sim/hull.go's hullKey uses, so a hull compiled here and
// one resolved later by the physics runtime share the identical entry.
func buildOne(modelName, hullName string, meshIndex int, settings hull.Settings, modelHash asset.Hash128, models asset.ModelSource, cache *hull.Cache) (bool, error) {
	built := false
	key := modelName + "/" + hullName
	settingsHash := hull.HashSettings(settings)
	_, err := cache.Load(key, hull.Hash128{Hi: modelHash.Hi, Lo: modelHash.Lo}, settingsHash, func() (hull.ConvexHullSet, error) {
		built = true
		verts, idxs, err := models.MeshGeometry(modelName, meshIndex)
		if err != nil {
			return hull.ConvexHullSet{}, err
		}
		return hull.Build(verts, idxs, settings), nil
	})
	return built, err
}

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
