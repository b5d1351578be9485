package restorer

import (
	"context"
	"fmt"
	"path"

	"rb-go/internal/restic"
)

// actionKind identifies what a chosen menu item does.
type actionKind int

const (
	actionGoUp actionKind = iota
	actionAddCurrent
	actionRestore
	actionQuit
	actionEnterDir
	actionAddFile
)

// menuItem is one selectable browser menu entry. The display line maps back
// to the item through the menu's label index, so filenames that happen to
// look like type markers or bracketed actions can never be misparsed.
type menuItem struct {
	label string
	kind  actionKind
	name  string // entry name, set for actionEnterDir and actionAddFile
}

// Fixed menu actions, always present above the dynamic directory entries.
const (
	labelGoUp       = "[..] Go up"
	labelAddCurrent = "[+] Add current path to restore"
	labelRestore    = "[>] Restore selected items"
	labelQuit       = "[q] Quit"
)

// buildMenu assembles the browser menu for one listing: the fixed actions
// followed by one entry per node, directories first as restic returns them.
func buildMenu(nodes []restic.Node) []menuItem {
	items := []menuItem{
		{label: labelGoUp, kind: actionGoUp},
		{label: labelAddCurrent, kind: actionAddCurrent},
		{label: labelRestore, kind: actionRestore},
		{label: labelQuit, kind: actionQuit},
	}

	for _, n := range nodes {
		switch n.Type {
		case "dir":
			items = append(items, menuItem{
				label: fmt.Sprintf("d  %s", n.Name),
				kind:  actionEnterDir,
				name:  n.Name,
			})
		case "file":
			items = append(items, menuItem{
				label: fmt.Sprintf("f  %s", n.Name),
				kind:  actionAddFile,
				name:  n.Name,
			})
		}
	}

	return items
}

// parentPath returns the parent of a virtual snapshot path, clamped at "/".
func parentPath(p string) string {
	if p == "/" || p == "" {
		return "/"
	}
	return path.Dir(p)
}

// joinPath appends a child entry to a virtual snapshot path without
// doubling separators.
func joinPath(base, name string) string {
	return path.Join(base, name)
}

// browseState is the loop-local mutable state of the directory browser.
type browseState struct {
	path     string
	selected []string
}

// BrowseSnapshot runs the interactive directory browser over the chosen
// snapshot. It returns the accumulated restore paths when the user picks
// "Restore selected items", or ErrCancelled on Quit.
func (s *RestoreService) BrowseSnapshot(ctx context.Context, snapshotID string) ([]string, error) {
	state := &browseState{path: "/"}

	for {
		nodes, err := s.engine.Ls(ctx, snapshotID, state.path)
		if err != nil {
			// Paths are rebuilt from display names, which is inherently
			// fragile. A failed listing below the root is a tolerated
			// inconsistency: recover by jumping back to the root.
			if state.path != "/" {
				s.logger.Warn("listing failed, returning to root", "path", state.path, "error", err)
				state.path = "/"
				continue
			}
			return nil, fmt.Errorf("listing snapshot %s: %w", snapshotID, err)
		}
		if len(nodes) == 0 && state.path != "/" {
			s.logger.Warn("empty listing, returning to root", "path", state.path)
			state.path = "/"
			continue
		}

		items := buildMenu(nodes)
		byLabel := make(map[string]menuItem, len(items))
		lines := make([]string, len(items))
		for i, item := range items {
			byLabel[item.label] = item
			lines[i] = item.label
		}

		chosen, err := s.selector.SingleSelect(fmt.Sprintf("Browsing %s", state.path), lines)
		if err != nil {
			return nil, fmt.Errorf("selecting menu entry: %w", err)
		}
		if chosen == "" {
			return nil, ErrCancelled
		}

		item, ok := byLabel[chosen]
		if !ok {
			// The picker returned something that isn't on the menu.
			s.statusf("Unknown selection: %s", chosen)
			continue
		}

		done, err := s.step(state, item)
		if err != nil {
			return nil, err
		}
		if done {
			return state.selected, nil
		}
	}
}

// step applies one menu choice to the browser state. It returns done=true
// when the user committed the selection for restore.
func (s *RestoreService) step(state *browseState, item menuItem) (bool, error) {
	switch item.kind {
	case actionGoUp:
		state.path = parentPath(state.path)

	case actionAddCurrent:
		state.selected = append(state.selected, state.path)
		s.statusf("Added: %s", state.path)

	case actionEnterDir:
		state.path = joinPath(state.path, item.name)

	case actionAddFile:
		p := joinPath(state.path, item.name)
		state.selected = append(state.selected, p)
		s.statusf("Added: %s", p)

	case actionRestore:
		if len(state.selected) == 0 {
			s.statusf("No items selected, add paths first.")
			return false, nil
		}
		return true, nil

	case actionQuit:
		return false, ErrCancelled
	}

	return false, nil
}
