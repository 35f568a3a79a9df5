package executor

import (
	"context"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

// ============================================================================
// SOURCE RESOLUTION - FROM and JOIN clauses merged into one row stream
// ============================================================================

// part is one FROM or JOIN source with its loaded records.
type part struct {
	name    string
	columns []string
	known   map[string]bool
	records []models.Record
	null    models.Record // every column nil, pads unmatched outer-join rows
}

// open reports whether the part has no records and therefore no known columns.
// Lookups against an open part yield nil instead of an unknown-column error.
func (p *part) open() bool {
	return len(p.records) == 0
}

func newPart(name string, records []models.Record) *part {
	p := &part{name: name, known: make(map[string]bool), records: records}
	for _, r := range records {
		for _, c := range r.Columns() {
			if !p.known[c] {
				p.known[c] = true
				p.columns = append(p.columns, c)
			}
		}
	}
	for _, c := range p.columns {
		p.null.Set(c, nil)
	}
	return p
}

// frame is the layout shared by every row of one run.
type frame struct {
	parts  []*part
	byName map[string]*part // alias and table name
	known  map[string]bool  // unqualified columns across parts
	open   bool
}

// row is one merged candidate. rec is the unqualified view: on a name clash
// the leftmost source wins unless its value only came from null padding.
type row struct {
	rec    models.Record
	parts  map[string]models.Record
	padded map[string]bool
}

func newFrame() *frame {
	return &frame{byName: make(map[string]*part), known: make(map[string]bool)}
}

func (f *frame) add(p *part, table string) {
	f.parts = append(f.parts, p)
	f.byName[p.name] = p
	if _, taken := f.byName[table]; !taken {
		f.byName[table] = p
	}
	for _, c := range p.columns {
		f.known[c] = true
	}
	f.open = f.open || p.open()
}

// check reports whether column resolves in the frame. It needs no row, so it
// can run once before any predicate is evaluated.
func (f *frame) check(column string) error {
	qual, name := models.SplitQualified(column)
	if qual != "" {
		p, ok := f.byName[qual]
		if !ok || (!p.known[name] && !p.open()) {
			return unknownColumn(column)
		}
		return nil
	}
	if !f.known[name] && !f.open {
		return unknownColumn(column)
	}
	return nil
}

// lookup resolves a plain or qualified column against a row.
func (f *frame) lookup(r *row, column string) (any, error) {
	if err := f.check(column); err != nil {
		return nil, err
	}
	qual, name := models.SplitQualified(column)
	if qual != "" {
		v, _ := r.parts[f.byName[qual].name].Get(name)
		return v, nil
	}
	v, _ := r.rec.Get(name)
	return v, nil
}

func unknownColumn(column string) error {
	return dberrors.NewQueryError("executor.column", "unknown column %s", column)
}

// rowScope evaluates predicates against one merged row.
type rowScope struct {
	f *frame
	r *row
}

func (s rowScope) value(column string) (any, error) {
	return s.f.lookup(s.r, column)
}

// extend appends one source's record to a row.
func extend(base *row, p *part, rec models.Record, padded bool) *row {
	out := &row{
		rec:    base.rec.Clone(),
		parts:  make(map[string]models.Record, len(base.parts)+1),
		padded: make(map[string]bool, len(base.padded)),
	}
	for k, v := range base.parts {
		out.parts[k] = v
	}
	for k := range base.padded {
		out.padded[k] = true
	}
	out.parts[p.name] = rec

	for _, c := range rec.Columns() {
		if !out.rec.Has(c) {
			out.rec.Set(c, nil)
			out.padded[c] = true
		}
		if out.padded[c] && !padded {
			v, _ := rec.Get(c)
			out.rec.Set(c, v)
			delete(out.padded, c)
		}
	}
	return out
}

// padding is a row of nulls covering every part already in the frame.
func (f *frame) padding() *row {
	r := &row{parts: make(map[string]models.Record), padded: make(map[string]bool)}
	for _, p := range f.parts {
		r = extend(r, p, p.null, true)
	}
	return r
}

// resolve loads every source of q and produces the merged row stream.
// Several FROM sources form a Cartesian product; joins are nested loops.
func (e *Engine) resolve(ctx context.Context, q *models.Query) (*frame, []*row, error) {
	f := newFrame()
	rows := []*row{{parts: map[string]models.Record{}, padded: map[string]bool{}}}

	for _, src := range q.From {
		p, err := e.load(ctx, src)
		if err != nil {
			return nil, nil, err
		}
		next := make([]*row, 0, len(rows)*len(p.records))
		for _, l := range rows {
			for _, rec := range p.records {
				next = append(next, extend(l, p, rec, false))
			}
		}
		f.add(p, src.Table)
		rows = next
	}

	for _, j := range q.Joins {
		p, err := e.load(ctx, j.Source)
		if err != nil {
			return nil, nil, err
		}
		left := f.padding()
		f.add(p, j.Source.Table)
		if err := checkConditions(j.On.Conditions, f.check); err != nil {
			return nil, nil, err
		}
		if rows, err = e.join(f, j, rows, left, p); err != nil {
			return nil, nil, err
		}
	}
	return f, rows, nil
}

func (e *Engine) load(ctx context.Context, src models.Source) (*part, error) {
	records, err := e.store.Read(ctx, src.Table)
	if err != nil {
		return nil, err
	}
	return newPart(src.Name(), records), nil
}

// join combines rows with the records of p. left pads unmatched right-side
// records for RIGHT and OUTER joins.
func (e *Engine) join(f *frame, j models.Join, rows []*row, left *row, p *part) ([]*row, error) {
	on := j.On.Conditions
	match := func(r *row) (bool, error) {
		return e.matches(rowScope{f: f, r: r}, on)
	}

	var out []*row
	switch j.Kind {
	case models.RightJoin:
		for _, rec := range p.records {
			matched := false
			for _, l := range rows {
				cand := extend(l, p, rec, false)
				ok, err := match(cand)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, cand)
					matched = true
				}
			}
			if !matched {
				out = append(out, extend(left, p, rec, false))
			}
		}
		return out, nil

	case models.InnerJoin, models.SelfJoin, models.CrossJoin, models.LeftJoin, models.OuterJoin:
		used := make([]bool, len(p.records))
		for _, l := range rows {
			matched := false
			for i, rec := range p.records {
				cand := extend(l, p, rec, false)
				ok, err := match(cand)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, cand)
					matched, used[i] = true, true
				}
			}
			if !matched && (j.Kind == models.LeftJoin || j.Kind == models.OuterJoin) {
				out = append(out, extend(l, p, p.null, true))
			}
		}
		if j.Kind == models.OuterJoin {
			for i, rec := range p.records {
				if !used[i] {
					out = append(out, extend(left, p, rec, false))
				}
			}
		}
		return out, nil
	}
	return nil, dberrors.NewQueryError("executor.join", "unsupported join kind %s", j.Kind)
}
