package duplicate

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
	"github.com/codesearch/hybrid-search/internal/model"
	"github.com/codesearch/hybrid-search/internal/store"
)

// candidateFanout is the kNN pull width per candidate.
const candidateFanout = 30

// Detector finds duplicate/near-duplicate symbols in a project's vector
// store.
type Detector struct {
	store *store.Store
}

// New builds a Detector over an already-open store.
func New(st *store.Store) *Detector {
	return &Detector{store: st}
}

type candidate struct {
	row        model.EmbeddingRow
	normalized string
}

// Detect runs the full pipeline: candidate selection, pairwise
// similarity, union-find clustering, impact ranking, and the
// acceptable-pattern set-aside.
func (d *Detector) Detect(ctx context.Context, opts Options) (Result, error) {
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}

	select {
	case <-ctx.Done():
		return Result{}, coreerrors.ErrCancelled
	default:
	}

	candidates, err := d.selectCandidates(opts)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return Result{Summary: Summary{ByLevel: map[Level]int{}}}, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.row.ID
	}
	vectors, err := d.store.VectorsByIDs(ids)
	if err != nil {
		return Result{}, err
	}
	for i := range candidates {
		candidates[i].row.Vector = vectors[candidates[i].row.ID]
	}

	byID := make(map[string]candidate, len(candidates))
	for _, c := range candidates {
		byID[c.row.ID] = c
	}

	uf := newUnionFind()
	for _, c := range candidates {
		uf.add(c.row.ID)
	}
	bestPairScore := make(map[string]float64) // root id -> max pairwise score seen

	for _, c := range candidates {
		select {
		case <-ctx.Done():
			return Result{}, coreerrors.ErrCancelled
		default:
		}

		results, _, err := d.store.SearchByVector(c.row.Vector, opts.ScopeFilter, candidateFanout)
		if err != nil {
			return Result{}, err
		}

		for _, r := range results {
			other, ok := byID[r.Row.ID]
			if !ok || other.row.ID == c.row.ID {
				continue
			}
			if opts.CrossFileOnly && other.row.File == c.row.File {
				continue
			}

			score := combinedSimilarity(r.Distance, c.normalized, other.normalized)
			level := opts.Thresholds.levelFor(score)
			if level == "" {
				continue
			}

			// Carry both components' best scores over to the merged root.
			best := score
			if s := bestPairScore[uf.find(c.row.ID)]; s > best {
				best = s
			}
			if s := bestPairScore[uf.find(other.row.ID)]; s > best {
				best = s
			}
			uf.union(c.row.ID, other.row.ID)
			bestPairScore[uf.find(c.row.ID)] = best
		}
	}

	groups := buildGroups(uf, byID, bestPairScore, opts.Thresholds)

	accepted, acceptable := splitAcceptable(groups, opts.IgnoreAcceptablePatterns)

	if opts.RankByImpact {
		sort.SliceStable(accepted, func(i, j int) bool { return accepted[i].Impact.Score > accepted[j].Impact.Score })
	}

	return Result{
		Groups:               accepted,
		AcceptableDuplicates: acceptable,
		Summary:              summarize(accepted),
	}, nil
}

// selectCandidates narrows to executable symbols, minus
// tests/anonymous/too-short/too-simple/excluded, from the store.
func (d *Detector) selectCandidates(opts Options) ([]candidate, error) {
	fs := opts.ScopeFilter
	fs.All = append(append([]store.Filter{}, fs.All...), store.Filter{
		Key: "symbolType", Op: store.OpIn, Value: []string{"function", "method"},
	})

	rows, _, err := d.store.List(fs, 0)
	if err != nil {
		return nil, err
	}

	var excludeRe *regexp.Regexp
	if opts.ExcludePattern != "" {
		excludeRe, err = regexp.Compile(opts.ExcludePattern)
		if err != nil {
			excludeRe = nil
		}
	}

	out := make([]candidate, 0, len(rows))
	for _, row := range rows {
		if row.SymbolName == "" {
			continue
		}
		if opts.IgnoreTests && isTestPath(row.File) {
			continue
		}
		if opts.OnlyExported && !row.IsExported {
			continue
		}
		if opts.MinLines > 0 && row.EndLine-row.StartLine+1 < opts.MinLines {
			continue
		}
		if opts.MinComplexity > 0 && row.Complexity < opts.MinComplexity {
			continue
		}
		if excludeRe != nil && excludeRe.MatchString(row.SymbolName) {
			continue
		}

		norm := row.ContentRaw
		if opts.NormalizeIdentifiers {
			norm = normalize(row.ContentRaw)
		}
		out = append(out, candidate{row: row, normalized: norm})
	}
	return out, nil
}

func isTestPath(path string) bool {
	return strings.Contains(path, ".test.") || strings.Contains(path, ".spec.") || strings.Contains(path, "__tests__")
}

func buildGroups(uf *unionFind, byID map[string]candidate, bestScore map[string]float64, thresholds Thresholds) []Group {
	clusters := make(map[string][]string)
	for id := range byID {
		root := uf.find(id)
		clusters[root] = append(clusters[root], id)
	}

	var groups []Group
	for root, ids := range clusters {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)

		instances := make([]Instance, 0, len(ids))
		for _, id := range ids {
			c := byID[id]
			instances = append(instances, Instance{
				ID: c.row.ID, File: c.row.File, SymbolName: c.row.SymbolName,
				StartLine: c.row.StartLine, EndLine: c.row.EndLine,
				Complexity: c.row.Complexity, IsExported: c.row.IsExported,
				ContentRaw: c.row.ContentRaw,
			})
		}

		similarity := bestScore[root]
		groups = append(groups, Group{
			ID:         uuid.NewString(),
			Instances:  instances,
			Similarity: similarity,
			Level:      thresholds.levelFor(similarity),
			Impact:     computeImpact(instances),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Instances[0].ID < groups[j].Instances[0].ID })
	return groups
}

// computeImpact aggregates a group's cost: total lines, mean complexity,
// distinct files, and the lines that deleting all-but-one copy would save.
func computeImpact(instances []Instance) Impact {
	totalLines := 0
	totalComplexity := 0
	files := make(map[string]bool)
	for _, inst := range instances {
		totalLines += inst.lines()
		totalComplexity += inst.Complexity
		files[inst.File] = true
	}
	avgComplexity := float64(totalComplexity) / float64(len(instances))
	savings := totalLines - instances[0].lines()
	return Impact{
		TotalLines:       totalLines,
		AvgComplexity:    avgComplexity,
		FileCount:        len(files),
		EstimatedSavings: savings,
		Score:            float64(totalLines) * avgComplexity * float64(len(files)),
	}
}

// acceptablePatterns are short, intentionally-repeated shapes (guard
// clauses, trivial validators) that are duplicates by vector similarity but
// not worth flagging.
var acceptablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)^\s*if\s+.{0,40}\{\s*return\s+.{0,20}\}\s*$`),
	regexp.MustCompile(`(?s)^\s*if\s+.{0,40}(==|!=)\s*nil\s*\{.{0,40}\}\s*$`),
	regexp.MustCompile(`(?s)^\s*func\s+\w+\([^)]*\)\s*\w*\s*\{\s*return\s+[\w.]+\s*\}\s*$`),
}

func isAcceptableInstance(inst Instance) bool {
	if inst.lines() > 4 {
		return false
	}
	for _, p := range acceptablePatterns {
		if p.MatchString(inst.ContentRaw) {
			return true
		}
	}
	return false
}

// splitAcceptable moves groups whose every instance matches an acceptable
// pattern into their own list, unless the caller forces them back in.
func splitAcceptable(groups []Group, ignoreAcceptablePatterns bool) (accepted, acceptable []Group) {
	for _, g := range groups {
		allAcceptable := true
		for _, inst := range g.Instances {
			if !isAcceptableInstance(inst) {
				allAcceptable = false
				break
			}
		}
		if allAcceptable && !ignoreAcceptablePatterns {
			acceptable = append(acceptable, g)
		} else {
			accepted = append(accepted, g)
		}
	}
	return accepted, acceptable
}

func summarize(groups []Group) Summary {
	s := Summary{ByLevel: map[Level]int{}}
	files := make(map[string]bool)
	for _, g := range groups {
		s.TotalDuplicates++
		s.ByLevel[g.Level]++
		s.TotalSavings += g.Impact.EstimatedSavings
		for _, inst := range g.Instances {
			files[inst.File] = true
		}
	}
	s.FilesAffected = len(files)
	return s
}
