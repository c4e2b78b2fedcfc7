// Package learn mines a labeled transaction corpus for new deterministic
// rules and merges the resulting candidates into the rule set.
package learn

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/petgully/tally/internal/model"
	"github.com/petgully/tally/internal/narration"
)

// maxRuleKeywords caps how many novel keywords a learned rule carries.
const maxRuleKeywords = 3

// maxGroupSamples bounds the per-group sample sets kept for audit display.
const maxGroupSamples = 3

// Priority tiers for learned rules, keyed by (frequency, confidence).
const (
	priorityHigh       = 10
	priorityMediumHigh = 20
	priorityMedium     = 30
	priorityLow        = 50
)

// Options configures a learning run.
type Options struct {
	// Progress, if set, is called after each transaction is grouped.
	Progress func(done, total int)
	// MinFrequency is the smallest group size that can produce a rule.
	MinFrequency int
	// MinConfidence is the smallest mean member confidence that can produce
	// a rule.
	MinConfidence float64
	// MaxRules caps the emitted candidates; zero means no cap.
	MaxRules int
}

// group accumulates the transactions sharing one pattern key.
type group struct {
	key          string
	mainCategory string
	subCategory  string
	keywords     []string
	keywordSet   map[string]struct{}
	samples      []string
	sampleSet    map[string]struct{}
	vendors      []string
	vendorSet    map[string]struct{}
	frequency    int
	mixed        int
	confidence   float64 // running sum until finalize
}

// Learner converts a corpus of labeled transactions into candidate rules.
type Learner struct {
	logger *slog.Logger
}

// NewLearner creates a pattern learner.
func NewLearner(logger *slog.Logger) *Learner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Learner{logger: logger}
}

// Learn groups the corpus by pattern key, applies the frequency and
// confidence thresholds, filters out already-known keywords, and emits
// candidate rules sorted descending by (frequency, confidence).
//
// When members of one group disagree on their labels, the first-seen
// member's categories win; disagreeing members are tallied on the group and
// logged, but do not change the label.
func (l *Learner) Learn(transactions []model.LabeledTransaction, opts Options, existingKeywords map[string]struct{}) []model.CandidateRule {
	if opts.MinFrequency < 1 {
		opts.MinFrequency = 1
	}

	groups := make(map[string]*group)
	var order []string

	total := len(transactions)
	for i, txn := range transactions {
		if opts.Progress != nil {
			opts.Progress(i+1, total)
		}
		if !txn.Labeled() {
			continue
		}

		key := narration.PatternKey(txn.Normalized, txn.VendorText)
		g, ok := groups[key]
		if !ok {
			g = &group{
				key:          key,
				mainCategory: txn.MainCategory,
				subCategory:  txn.SubCategory,
				keywordSet:   make(map[string]struct{}),
				sampleSet:    make(map[string]struct{}),
				vendorSet:    make(map[string]struct{}),
			}
			groups[key] = g
			order = append(order, key)
		}

		g.frequency++
		g.confidence += txn.Confidence
		if txn.MainCategory != g.mainCategory || txn.SubCategory != g.subCategory {
			g.mixed++
		}

		for _, kw := range narration.ExtractKeywords(txn.Normalized, txn.VendorText) {
			if _, dup := g.keywordSet[kw]; !dup {
				g.keywordSet[kw] = struct{}{}
				g.keywords = append(g.keywords, kw)
			}
		}
		g.addSample(txn.Normalized)
		g.addVendor(txn.VendorText)
	}

	var candidates []model.CandidateRule
	for _, key := range order {
		g := groups[key]
		avgConfidence := g.confidence / float64(g.frequency)

		if g.frequency < opts.MinFrequency || avgConfidence < opts.MinConfidence {
			continue
		}
		if g.mixed > 0 {
			l.logger.Warn("pattern group has mixed labels, keeping first-seen categories",
				"pattern_key", g.key,
				"mixed", g.mixed,
				"frequency", g.frequency)
		}

		newKeywords := novelKeywords(g.keywords, existingKeywords)
		if len(newKeywords) == 0 {
			// A group that contributes no novel information produces no rule.
			continue
		}
		if len(newKeywords) > maxRuleKeywords {
			newKeywords = newKeywords[:maxRuleKeywords]
		}

		name := fmt.Sprintf("Auto-learned: %s", newKeywords[0])
		if len(newKeywords) > 1 {
			name = fmt.Sprintf("%s +%d", name, len(newKeywords)-1)
		}

		candidates = append(candidates, model.CandidateRule{
			Name:               name,
			Priority:           learnedPriority(g.frequency, avgConfidence),
			Any:                newKeywords,
			MainCategory:       g.mainCategory,
			SubCategory:        g.subCategory,
			Frequency:          g.frequency,
			Confidence:         avgConfidence,
			Source:             model.SourceAutoLearned,
			SampleDescriptions: g.samples,
			VendorTexts:        g.vendors,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Frequency != candidates[j].Frequency {
			return candidates[i].Frequency > candidates[j].Frequency
		}
		return candidates[i].Confidence > candidates[j].Confidence
	})

	if opts.MaxRules > 0 && len(candidates) > opts.MaxRules {
		candidates = candidates[:opts.MaxRules]
	}

	return candidates
}

func (g *group) addSample(desc string) {
	if desc == "" || len(g.samples) >= maxGroupSamples {
		return
	}
	if _, dup := g.sampleSet[desc]; dup {
		return
	}
	g.sampleSet[desc] = struct{}{}
	g.samples = append(g.samples, desc)
}

func (g *group) addVendor(vendor string) {
	if vendor == "" || len(g.vendors) >= maxGroupSamples {
		return
	}
	if _, dup := g.vendorSet[vendor]; dup {
		return
	}
	g.vendorSet[vendor] = struct{}{}
	g.vendors = append(g.vendors, vendor)
}

// novelKeywords keeps keywords absent from the existing set, preserving
// first-seen order.
func novelKeywords(keywords []string, existing map[string]struct{}) []string {
	var novel []string
	for _, kw := range keywords {
		if len(kw) < 3 {
			continue
		}
		if _, known := existing[kw]; known {
			continue
		}
		novel = append(novel, kw)
	}
	return novel
}

// learnedPriority maps a group's aggregates onto the fixed priority tiers.
func learnedPriority(frequency int, confidence float64) int {
	switch {
	case frequency >= 10 && confidence >= 0.9:
		return priorityHigh
	case frequency >= 5 && confidence >= 0.8:
		return priorityMediumHigh
	case frequency >= 3 && confidence >= 0.7:
		return priorityMedium
	default:
		return priorityLow
	}
}
