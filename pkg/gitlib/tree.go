package gitlib

import (
	git2go "github.com/libgit2/git2go/v34"
)

// Tree wraps a libgit2 tree.
type Tree struct {
	tree *git2go.Tree
	repo *Repository
}

// Hash returns the tree hash.
func (t *Tree) Hash() Hash {
	return HashFromOid(t.tree.Id())
}

// EntryCount returns the number of entries in the tree.
func (t *Tree) EntryCount() uint64 {
	return t.tree.EntryCount()
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}

// TreeFile is a blob reachable from a tree.
type TreeFile struct {
	Path string
	Hash Hash
}

// Files returns every blob in the tree, recursing into subtrees.
// Paths use forward slashes and are relative to the tree root.
func (t *Tree) Files() ([]TreeFile, error) {
	var files []TreeFile

	err := t.tree.Walk(func(prefix string, entry *git2go.TreeEntry) error {
		if entry.Type != git2go.ObjectBlob {
			return nil
		}

		files = append(files, TreeFile{Path: prefix + entry.Name, Hash: HashFromOid(entry.Id)})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
