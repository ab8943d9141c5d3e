package service

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// ancestors holds the typed nodes met while walking a path. Each level of the
// curation tree has a fixed type, so capture happens by depth position.
type ancestors struct {
	mutation       *domain.Mutation
	tumor          *domain.Tumor
	ti             *domain.TI
	treatment      *domain.Treatment
	treatmentIndex int
}

type pathWalker struct {
	path string
	anc  ancestors
}

// walkPath descends the gene tree along path and returns the ancestors found.
// It fails with a PathResolutionError on the first segment that is neither a
// known key nor a valid index of the node it applies to.
func walkPath(gene *domain.Gene, path string) (*ancestors, error) {
	w := &pathWalker{path: path, anc: ancestors{treatmentIndex: -1}}
	segments := splitPath(path)
	if len(segments) == 0 {
		return &w.anc, nil
	}
	if err := w.gene(gene, segments); err != nil {
		return nil, err
	}
	return &w.anc, nil
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func (w *pathWalker) fail(segment string) error {
	return &domain.PathResolutionError{Path: w.path, Segment: segment}
}

// index parses segs[0] as an index into a sequence of length n.
func (w *pathWalker) index(segs []string, n int) (int, error) {
	i, ok := parseIndex(segs[0], n)
	if !ok {
		return 0, w.fail(segs[0])
	}
	return i, nil
}

// parseIndex accepts only plain decimal digits, so "+0" and "-1" are keys.
func parseIndex(seg string, n int) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(seg)
	if err != nil || i >= n {
		return 0, false
	}
	return i, true
}

func (w *pathWalker) gene(g *domain.Gene, segs []string) error {
	if segs[0] == "mutations" {
		if len(segs) == 1 {
			return nil
		}
		i, err := w.index(segs[1:], len(g.Mutations))
		if err != nil {
			return err
		}
		w.anc.mutation = &g.Mutations[i]
		if len(segs) == 2 {
			return nil
		}
		return w.mutation(w.anc.mutation, segs[2:])
	}

	var leaf any
	switch segs[0] {
	case "name":
		leaf = g.Name
	case "summary":
		leaf = g.Summary
	case "summary_uuid":
		leaf = g.SummaryUUID
	case "summary_review":
		leaf = g.SummaryReview
	case "background":
		leaf = g.Background
	case "background_uuid":
		leaf = g.BackgroundUUID
	case "background_review":
		leaf = g.BackgroundReview
	default:
		return w.fail(segs[0])
	}
	return w.leaf(leaf, segs[1:])
}

func (w *pathWalker) mutation(m *domain.Mutation, segs []string) error {
	if segs[0] == "tumors" {
		if len(segs) == 1 {
			return nil
		}
		i, err := w.index(segs[1:], len(m.Tumors))
		if err != nil {
			return err
		}
		w.anc.tumor = &m.Tumors[i]
		if len(segs) == 2 {
			return nil
		}
		return w.tumor(w.anc.tumor, segs[2:])
	}

	var leaf any
	switch segs[0] {
	case "name":
		leaf = m.Name
	case "name_uuid":
		leaf = m.NameUUID
	case "name_review":
		leaf = m.NameReview
	case "alterations":
		leaf = m.Alterations
	case "mutation_effect":
		leaf = m.MutationEffect
	default:
		return w.fail(segs[0])
	}
	return w.leaf(leaf, segs[1:])
}

func (w *pathWalker) tumor(t *domain.Tumor, segs []string) error {
	if segs[0] == "TIs" {
		if len(segs) == 1 {
			return nil
		}
		i, err := w.index(segs[1:], len(t.TIs))
		if err != nil {
			return err
		}
		w.anc.ti = &t.TIs[i]
		if len(segs) == 2 {
			return nil
		}
		return w.therapeuticImplication(w.anc.ti, segs[2:])
	}

	var leaf any
	switch segs[0] {
	case "cancerTypes":
		leaf = t.CancerTypes
	case "excludedCancerTypes":
		leaf = t.ExcludedCancerTypes
	case "summary":
		leaf = t.Summary
	case "summary_uuid":
		leaf = t.SummaryUUID
	case "summary_review":
		leaf = t.SummaryReview
	case "prognosticSummary":
		leaf = t.PrognosticSummary
	case "prognosticSummary_uuid":
		leaf = t.PrognosticSummaryUUID
	case "prognosticSummary_review":
		leaf = t.PrognosticSummaryReview
	case "diagnosticSummary":
		leaf = t.DiagnosticSummary
	case "diagnosticSummary_uuid":
		leaf = t.DiagnosticSummaryUUID
	case "diagnosticSummary_review":
		leaf = t.DiagnosticSummaryReview
	case "prognostic":
		leaf = t.Prognostic
	case "prognostic_uuid":
		leaf = t.PrognosticUUID
	case "diagnostic":
		leaf = t.Diagnostic
	case "diagnostic_uuid":
		leaf = t.DiagnosticUUID
	default:
		return w.fail(segs[0])
	}
	return w.leaf(leaf, segs[1:])
}

func (w *pathWalker) therapeuticImplication(ti *domain.TI, segs []string) error {
	if segs[0] == "treatments" {
		if len(segs) == 1 {
			return nil
		}
		i, err := w.index(segs[1:], len(ti.Treatments))
		if err != nil {
			return err
		}
		w.anc.treatment = &ti.Treatments[i]
		w.anc.treatmentIndex = i
		if len(segs) == 2 {
			return nil
		}
		return w.treatment(w.anc.treatment, segs[2:])
	}

	var leaf any
	switch segs[0] {
	case "name":
		leaf = ti.Name
	case "type":
		leaf = ti.Type
	default:
		return w.fail(segs[0])
	}
	return w.leaf(leaf, segs[1:])
}

func (w *pathWalker) treatment(t *domain.Treatment, segs []string) error {
	var leaf any
	switch segs[0] {
	case "name":
		leaf = t.Name
	case "name_uuid":
		leaf = t.NameUUID
	case "name_review":
		leaf = t.NameReview
	case "level":
		leaf = t.Level
	case "fdaLevel":
		leaf = t.FdaLevel
	case "propagation":
		leaf = t.Propagation
	case "propagationLiquid":
		leaf = t.PropagationLiquid
	case "indication":
		leaf = t.Indication
	case "description":
		leaf = t.Description
	case "short":
		leaf = t.Short
	default:
		return w.fail(segs[0])
	}
	return w.leaf(leaf, segs[1:])
}

// leaf descends into a leaf value: structs by json field name, whether or
// not the field is set, slices by index and string-keyed maps by key.
func (w *pathWalker) leaf(value any, segs []string) error {
	node := reflect.ValueOf(value)
	for _, seg := range segs {
		for node.Kind() == reflect.Pointer || node.Kind() == reflect.Interface {
			if node.IsNil() {
				return w.fail(seg)
			}
			node = node.Elem()
		}

		switch node.Kind() {
		case reflect.Struct:
			field, ok := jsonField(node, seg)
			if !ok {
				return w.fail(seg)
			}
			node = field
		case reflect.Slice, reflect.Array:
			i, ok := parseIndex(seg, node.Len())
			if !ok {
				return w.fail(seg)
			}
			node = node.Index(i)
		case reflect.Map:
			if node.Type().Key().Kind() != reflect.String {
				return w.fail(seg)
			}
			next := node.MapIndex(reflect.ValueOf(seg).Convert(node.Type().Key()))
			if !next.IsValid() {
				return w.fail(seg)
			}
			node = next
		default:
			return w.fail(seg)
		}
	}
	return nil
}

// jsonField finds the exported field of v encoded under name.
func jsonField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			if tag == "-" {
				continue
			}
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				key = n
			}
		}
		if key == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
