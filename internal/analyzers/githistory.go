package analyzers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/phrazzld/handover/internal/snapshot"
)

// defaultLogWindowMonths bounds the log walk to commits authored in the last
// six months; AnalysisContext.GitDepth "full" walks the whole history
// (spec §4.3.3).
const defaultLogWindowMonths = 6

const staleBranchDays = 90

// GitHistory opens the repository at c.Root with go-git, classifies its
// branching convention, and summarizes commit activity, churn, and
// ownership. A non-repository degrades to {IsGitRepo:false, Warning:...}
// and a repository whose HEAD or log cannot be read to
// {IsGitRepo:true, Warning:...}, rather than failing the whole pass,
// grounded on gitutil.Client's error-wrapped-not-fatal style in
// sevigo-code-warden internal/gitutil/cloner.go.
func GitHistory(ctx context.Context, c *Context) Result[snapshot.GitHistoryResult] {
	return run(func() (snapshot.GitHistoryResult, error) {
		repo, err := git.PlainOpen(c.Root)
		if err != nil {
			return snapshot.GitHistoryResult{IsGitRepo: false, Warning: "not a git repository"}, nil
		}

		var since time.Time
		if c.GitDepth != "full" {
			since = time.Now().AddDate(0, -defaultLogWindowMonths, 0)
		}

		head, err := repo.Head()
		if err != nil {
			return snapshot.GitHistoryResult{IsGitRepo: true, Warning: fmt.Sprintf("no HEAD: %v", err)}, nil
		}

		logIter, err := repo.Log(&git.LogOptions{From: head.Hash()})
		if err != nil {
			return snapshot.GitHistoryResult{IsGitRepo: true, Warning: fmt.Sprintf("log failed: %v", err)}, nil
		}

		res := snapshot.GitHistoryResult{
			IsGitRepo:       true,
			ActivityByMonth: make(map[string]int),
			FileOwnership:   make(map[string]string),
		}

		changeCounts := make(map[string]int)
		fileAuthorCounts := make(map[string]map[string]int)
		contributorCounts := make(map[string]*snapshot.Contributor)
		contributorOrder := []string{}

		count := 0
		walkErr := logIter.ForEach(func(cm *object.Commit) error {
			if !since.IsZero() && cm.Author.When.Before(since) {
				return nil
			}
			count++

			if count <= 100 {
				res.RecentCommits = append(res.RecentCommits, snapshot.Commit{
					Hash:    cm.Hash.String()[:12],
					Author:  cm.Author.Name,
					DateISO: cm.Author.When.UTC().Format("2006-01-02T15:04:05Z"),
					Message: strings.SplitN(cm.Message, "\n", 2)[0],
				})
			}

			month := cm.Author.When.UTC().Format("2006-01")
			res.ActivityByMonth[month]++

			key := cm.Author.Email
			if key == "" {
				key = cm.Author.Name
			}
			cont, ok := contributorCounts[key]
			if !ok {
				cont = &snapshot.Contributor{Name: cm.Author.Name, Email: cm.Author.Email}
				contributorCounts[key] = cont
				contributorOrder = append(contributorOrder, key)
			}
			cont.CommitCount++

			stats, statErr := commitFileStats(cm)
			if statErr == nil {
				for _, path := range stats {
					changeCounts[path]++
					if fileAuthorCounts[path] == nil {
						fileAuthorCounts[path] = make(map[string]int)
					}
					fileAuthorCounts[path][cm.Author.Name]++
				}
			}
			return nil
		})
		if walkErr != nil {
			res.Warning = fmt.Sprintf("log walk incomplete: %v", walkErr)
		}

		for _, key := range contributorOrder {
			res.Contributors = append(res.Contributors, *contributorCounts[key])
		}
		sort.Slice(res.Contributors, func(i, j int) bool {
			return res.Contributors[i].CommitCount > res.Contributors[j].CommitCount
		})

		type pathCount struct {
			path  string
			count int
		}
		var pcs []pathCount
		for p, n := range changeCounts {
			pcs = append(pcs, pathCount{p, n})
		}
		sort.Slice(pcs, func(i, j int) bool {
			if pcs[i].count != pcs[j].count {
				return pcs[i].count > pcs[j].count
			}
			return pcs[i].path < pcs[j].path
		})
		top := 30
		if top > len(pcs) {
			top = len(pcs)
		}
		for _, pc := range pcs[:top] {
			res.MostChanged = append(res.MostChanged, snapshot.ChangedFile{Path: pc.path, ChangeCount: pc.count})
		}

		for path, authors := range fileAuthorCounts {
			best, bestCount := "", 0
			for author, n := range authors {
				if n > bestCount {
					best, bestCount = author, n
				}
			}
			res.FileOwnership[path] = best
		}

		res.BranchPattern = classifyBranches(repo)

		return res, nil
	})
}

// commitFileStats returns the paths touched by a commit, diffing against its
// first parent (merge commits diff against none, so are skipped).
func commitFileStats(cm *object.Commit) ([]string, error) {
	if cm.NumParents() == 0 {
		tree, err := cm.Tree()
		if err != nil {
			return nil, err
		}
		var paths []string
		err = tree.Files().ForEach(func(f *object.File) error {
			paths = append(paths, f.Name)
			return nil
		})
		return paths, err
	}
	if cm.NumParents() > 1 {
		return nil, nil
	}
	parent, err := cm.Parent(0)
	if err != nil {
		return nil, err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, err
	}
	tree, err := cm.Tree()
	if err != nil {
		return nil, err
	}
	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(changes))
	for _, ch := range changes {
		name := ch.To.Name
		if name == "" {
			name = ch.From.Name
		}
		paths = append(paths, name)
	}
	return paths, nil
}

// classifyBranches inspects local branch refs for git-flow prefixes
// (feature/, release/, hotfix/) versus a flat trunk-based layout.
func classifyBranches(repo *git.Repository) snapshot.BranchPattern {
	bp := snapshot.BranchPattern{Strategy: snapshot.StrategyUnknown}

	refs, err := repo.Branches()
	if err != nil {
		return bp
	}

	gitFlowPrefixes := []string{"feature/", "release/", "hotfix/", "develop"}
	var names []string
	gitFlowHits := 0
	_ = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		names = append(names, name)
		for _, prefix := range gitFlowPrefixes {
			if strings.HasPrefix(name, prefix) || name == prefix {
				gitFlowHits++
				bp.Evidence = append(bp.Evidence, name)
				break
			}
		}
		return nil
	})

	bp.Count = len(names)
	bp.ActiveBranches = names

	if head, err := repo.Head(); err == nil {
		bp.DefaultBranch = head.Name().Short()
	}

	switch {
	case gitFlowHits >= 2:
		bp.Strategy = snapshot.StrategyGitFlow
	case bp.Count <= 1:
		bp.Strategy = snapshot.StrategyTrunkBased
	default:
		bp.Strategy = snapshot.StrategyFeatureBranch
	}

	return bp
}
