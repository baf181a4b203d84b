package inventory

import (
	"context"
	"iter"
	"strings"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/logger"
)

// checkParentType enforces the room > freezer > drawer > box table.
func checkParentType(child entities.PlaceType, parent *entities.StoragePlace) error {
	want, needsParent := child.ParentType()
	switch {
	case parent == nil && !needsParent:
		return nil
	case parent == nil:
		return structuralError(ErrInvalidParentType, "a %s must be placed in a %s", child, want)
	case !needsParent:
		return structuralError(ErrInvalidParentType, "a %s cannot have a parent", child)
	case parent.Type != want:
		return structuralError(ErrInvalidParentType, "a %s must be placed in a %s, not a %s", child, want, parent.Type)
	}
	return nil
}

// onAncestorChain walks from start to the root and reports whether nodeID is on
// the chain. A loop in stored data counts as a cycle.
func (s *Service) onAncestorChain(ctx context.Context, r repos, start *entities.StoragePlace, nodeID uint) (bool, error) {
	seen := make(map[uint]bool)
	current := start
	for current != nil {
		if current.ID == nodeID || seen[current.ID] {
			return true, nil
		}
		seen[current.ID] = true
		if current.ParentID == nil {
			return false, nil
		}
		next, err := r.places.GetByID(ctx, *current.ParentID)
		if err != nil {
			return false, mapRepoError(err, *current.ParentID)
		}
		current = next
	}
	return false, nil
}

func (s *Service) loadParent(ctx context.Context, r repos, parentID *uint) (*entities.StoragePlace, error) {
	if parentID == nil {
		return nil, nil
	}
	parent, err := r.places.GetByID(ctx, *parentID)
	if err != nil {
		return nil, mapRepoError(err, *parentID)
	}
	return parent, nil
}

// AddNode creates a storage place under parentID.
func (s *Service) AddNode(ctx context.Context, name string, placeType entities.PlaceType, parentID *uint) (*entities.StoragePlace, error) {
	name = normalizeName(name)
	var fe FieldErrors
	if name == "" {
		fe.add("name", "name is required")
	}
	if !placeType.Valid() {
		fe.add("type", "unknown storage type %q", placeType)
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	var place *entities.StoragePlace
	err := s.inTx(ctx, "storage_add", func(r repos) error {
		parent, err := s.loadParent(ctx, r, parentID)
		if err != nil {
			return err
		}
		if parent != nil {
			// The new node has no id yet; 0 only matches a corrupted chain.
			cyclic, err := s.onAncestorChain(ctx, r, parent, 0)
			if err != nil {
				return err
			}
			if cyclic {
				return structuralError(ErrCyclicReference, "the ancestor chain of %q loops", parent.Name)
			}
		}
		if err := checkParentType(placeType, parent); err != nil {
			return err
		}

		place = &entities.StoragePlace{Name: name, Type: placeType, ParentID: parentID}
		return r.places.Create(ctx, place)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(treeCacheKey)
	s.log.Info("storage place added",
		logger.String("name", name),
		logger.String("type", string(placeType)),
		logger.Uint("id", place.ID))
	return place, nil
}

// MoveNode reparents a storage place. A nil parent moves it to the top level.
// A move that breaks several rules reports all of them, the cycle first.
func (s *Service) MoveNode(ctx context.Context, nodeID uint, newParentID *uint) error {
	err := s.inTx(ctx, "storage_move", func(r repos) error {
		node, err := r.places.GetByID(ctx, nodeID)
		if err != nil {
			return mapRepoError(err, nodeID)
		}
		parent, err := s.loadParent(ctx, r, newParentID)
		if err != nil {
			return err
		}

		var violations []error
		if parent != nil {
			cyclic, err := s.onAncestorChain(ctx, r, parent, node.ID)
			if err != nil {
				return err
			}
			if cyclic {
				violations = append(violations,
					structuralError(ErrCyclicReference, "cannot move %q into its own descendant %q", node.Name, parent.Name))
			}
		}
		if err := checkParentType(node.Type, parent); err != nil {
			violations = append(violations, err)
		}
		switch len(violations) {
		case 0:
		case 1:
			return violations[0]
		default:
			return errors.New(errors.Join(violations...)).
				Component(component).
				Category(errors.CategoryStructural).
				Build()
		}

		return r.places.SetParent(ctx, node.ID, newParentID)
	})
	if err != nil {
		return err
	}
	s.invalidate(treeCacheKey)
	return nil
}

// DeleteNode removes a storage place that has no children and stores no samples.
func (s *Service) DeleteNode(ctx context.Context, nodeID uint) error {
	err := s.inTx(ctx, "storage_delete", func(r repos) error {
		node, err := r.places.GetByID(ctx, nodeID)
		if err != nil {
			return mapRepoError(err, nodeID)
		}

		children, err := r.places.CountChildren(ctx, node.ID)
		if err != nil {
			return err
		}
		if children > 0 {
			return structuralError(ErrHasChildren, "cannot delete %q: it contains %d storage locations", node.Name, children)
		}

		stored, err := r.places.CountSamples(ctx, node.ID)
		if err != nil {
			return err
		}
		if stored > 0 {
			return referentialError(ErrInUseBySamples, "cannot delete %q: it contains %d samples", node.Name, stored)
		}

		return r.places.Delete(ctx, node.ID)
	})
	if err != nil {
		return err
	}
	s.invalidate(treeCacheKey)
	return nil
}

// PlacesByType lists places of one type, optionally under a parent, for
// cascading location pickers.
func (s *Service) PlacesByType(ctx context.Context, placeType entities.PlaceType, parentID *uint) ([]entities.StoragePlace, error) {
	if !placeType.Valid() {
		return nil, validationError("type", "unknown storage type %q", placeType)
	}
	places, err := s.read().places.ListByType(ctx, placeType, parentID)
	return places, databaseError(err, "storage_list")
}

// TreeNode is one place in a tree snapshot
type TreeNode struct {
	ID       uint               `json:"id"`
	Name     string             `json:"name"`
	Type     entities.PlaceType `json:"type"`
	Children []*TreeNode        `json:"children,omitempty"`
}

// Tree is an immutable snapshot of the storage hierarchy
type Tree struct {
	Rooms []*TreeNode `json:"rooms"`
}

// Walk yields every node depth-first with its depth, rooms at depth 0.
// Each range over the sequence starts a fresh walk.
func (t *Tree) Walk() iter.Seq2[int, *TreeNode] {
	return func(yield func(int, *TreeNode) bool) {
		var visit func(depth int, nodes []*TreeNode) bool
		visit = func(depth int, nodes []*TreeNode) bool {
			for _, n := range nodes {
				if !yield(depth, n) || !visit(depth+1, n.Children) {
					return false
				}
			}
			return true
		}
		visit(0, t.Rooms)
	}
}

// ListTree returns the hierarchy as rooms, freezers, drawers and boxes,
// ordered by name on each level. The snapshot is shared; do not modify it.
func (s *Service) ListTree(ctx context.Context) (*Tree, error) {
	return cached(s, treeCacheKey, s.ttl.TreeTTL, func() (*Tree, error) {
		places, err := s.read().places.All(ctx)
		if err != nil {
			return nil, databaseError(err, "storage_tree")
		}
		return buildTree(places), nil
	})
}

// buildTree links places level by level. Nodes whose parent type breaks the
// table are left out, so the snapshot always has four clean levels.
func buildTree(places []entities.StoragePlace) *Tree {
	nodes := make(map[uint]*TreeNode, len(places))
	for i := range places {
		p := &places[i]
		nodes[p.ID] = &TreeNode{ID: p.ID, Name: p.Name, Type: p.Type}
	}

	tree := &Tree{}
	for i := range places {
		p := &places[i]
		node := nodes[p.ID]
		if p.ParentID == nil {
			if p.Type == entities.PlaceRoom {
				tree.Rooms = append(tree.Rooms, node)
			}
			continue
		}
		parent, ok := nodes[*p.ParentID]
		if !ok {
			continue
		}
		if want, _ := p.Type.ParentType(); want == parent.Type {
			parent.Children = append(parent.Children, node)
		}
	}
	return tree
}

// storagePath returns the place names from the room down, joined with " → ".
func (s *Service) storagePath(ctx context.Context, r repos, place *entities.StoragePlace) (string, error) {
	if place == nil {
		return "", nil
	}
	var names []string
	seen := make(map[uint]bool)
	current := place
	for current != nil && !seen[current.ID] {
		seen[current.ID] = true
		names = append([]string{current.Name}, names...)
		if current.ParentID == nil {
			break
		}
		next, err := r.places.GetByID(ctx, *current.ParentID)
		if err != nil {
			return "", err
		}
		current = next
	}
	return strings.Join(names, " → "), nil
}
