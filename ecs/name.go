// Copyright © 2024 Galvanized Logic Inc.

package ecs

import "fmt"

// name.go enforces Invariant 1: within one Registry instance, at most
// one live entity may be bound to a given name at a time (spec §3,
// §4.2). Binding is layered on top of Set[Name] rather than folded into
// it, since Name is an ordinary component everywhere else (iterable,
// observable, removable) and only name binding itself needs the
// uniqueness check.

// ErrNameTaken is returned by BindName when another entity in the same
// instance already holds the requested name.
var ErrNameTaken = fmt.Errorf("ecs: name already bound")

// QualifiedName joins a Name's (scene, local) pair into the single
// string EntityRef and ReferenceManager key on.
func QualifiedName(scene, local string) string {
	if scene == "" {
		return local
	}
	return scene + "." + local
}

// BindName assigns the (scene, local) pair to e within e's instance,
// recording the binding in r.refs's reverse map so EntityRef lookups
// resolve it immediately. Fails with ErrNameTaken if a different,
// still-live entity already holds the qualified name.
func BindName(l *Lock, e Entity, scene, local string) error {
	r := l.registry
	qualified := QualifiedName(scene, local)
	if r.refs != nil {
		if existing := r.refs.GetEntityByName(qualified); existing != nil {
			if id, ok := existing.Resolve(e.Instance); ok && id != e.ID {
				return ErrNameTaken
			}
		}
	}
	if err := Set(l, e, Name{Scene: scene, Local: local}); err != nil {
		return err
	}
	if r.refs != nil {
		r.refs.SetEntity(qualified, e)
	}
	return nil
}

// UnbindName clears e's Name component and its reverse-map binding.
func UnbindName(l *Lock, e Entity) error {
	r := l.registry
	if r.refs != nil {
		r.refs.UnsetEntity(e)
	}
	return Unset[Name](l, e)
}
