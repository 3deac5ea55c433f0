package main

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kurobon/nexusvc/internal/git"
	"github.com/kurobon/nexusvc/internal/mission"
)

// debug_export replays a mission's seed repository into go-git and prints
// what came out: the id mapping, branches, tags and the log of HEAD.
//
//	go run ./cmd/debug_export [mission-id] [mission-dir]
func main() {
	id := mission.DefaultID
	if len(os.Args) > 1 {
		id = os.Args[1]
	}
	dir := ""
	if len(os.Args) > 2 {
		dir = os.Args[2]
	}

	r, err := mission.NewLoader(dir, nil).Seed(id)
	if err != nil {
		fmt.Printf("Seed failed: %v\n", err)
		os.Exit(1)
	}

	res, err := git.Export(r)
	if err != nil {
		fmt.Printf("Export failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mission %s: %d commits\n", id, len(res.Hashes))
	for _, c := range r.Commits {
		fmt.Printf("  %s -> %s\n", c.ID, res.Hashes[c.ID])
	}

	repo := res.Repository
	fmt.Println("Iterating Branches...")
	bIter, err := repo.Branches()
	if err != nil {
		fmt.Printf("Branches() failed: %v\n", err)
		os.Exit(1)
	}
	_ = bIter.ForEach(func(ref *plumbing.Reference) error {
		fmt.Printf("Branch: %s, Hash: %s\n", ref.Name().Short(), ref.Hash())
		return nil
	})

	fmt.Println("Iterating Tags...")
	tIter, err := repo.Tags()
	if err != nil {
		fmt.Printf("Tags() failed: %v\n", err)
		os.Exit(1)
	}
	count := 0
	_ = tIter.ForEach(func(ref *plumbing.Reference) error {
		count++
		fmt.Printf("Tag: %s, Hash: %s\n", ref.Name().Short(), ref.Hash())
		return nil
	})
	fmt.Printf("Total Tags Found: %d\n", count)

	fmt.Println("Log of HEAD:")
	for _, line := range res.Log {
		fmt.Println("  " + line)
	}
}
