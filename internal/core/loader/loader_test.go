package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/grove/internal/core/engine"
	"github.com/zeusync/grove/internal/core/images"
	"github.com/zeusync/grove/internal/core/scheduler"
	"github.com/zeusync/grove/internal/core/world"
)

func testStore() *images.Store {
	s := images.NewStore(images.Frames{"none"})
	s.Add("worker", "worker1", "worker2")
	s.Add("tree", "tree1")
	s.Add("grass", "grass")
	s.Add("rocks", "rocks")
	return s
}

func TestDecodeFileAndBuild(t *testing.T) {
	doc, err := DecodeFile("testdata/grove.yaml")
	require.NoError(t, err)
	assert.Equal(t, 6, doc.Rows)
	assert.Equal(t, 8, doc.Cols)
	require.Len(t, doc.Entities, 9)

	w, err := New(testStore()).Build(doc)
	require.NoError(t, err)
	assert.Equal(t, 8, w.Len(), "out of bounds entity is skipped")
	require.NoError(t, w.Check())

	worker, ok := w.Occupant(world.Pt(2, 2))
	require.True(t, ok)
	assert.Equal(t, world.KindWorkerEmpty, worker.Kind)
	assert.Equal(t, "worker_1", worker.ID)
	assert.Equal(t, 0.8, worker.ActionPeriod)
	assert.Equal(t, 0.15, worker.AnimationPeriod)
	assert.Equal(t, 3, worker.ResourceLimit)
	assert.Equal(t, images.Frames{"worker1", "worker2"}, worker.Images)

	sap, ok := w.Occupant(world.Pt(7, 0))
	require.True(t, ok)
	assert.Equal(t, 2, sap.Health)
	assert.Equal(t, world.DefaultSapling.HealthLimit, sap.HealthLimit)
	assert.Equal(t, world.DefaultSapling.Period, sap.ActionPeriod)

	pond, ok := w.Occupant(world.Pt(3, 0))
	require.True(t, ok)
	assert.Equal(t, images.Frames{"none"}, pond.Images, "missing key falls back to defaults")

	bg, ok := w.Background(world.Pt(0, 0))
	require.True(t, ok)
	assert.Equal(t, "rocks", bg.ID)
	bg, ok = w.Background(world.Pt(0, 1))
	require.True(t, ok)
	assert.Equal(t, "grass", bg.ID)
}

func TestDecodeJSON(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{
	  "rows": 2, "cols": 3,
	  "entities": [{"kind": "house", "id": "h", "col": 1, "row": 1}]
	}`))
	require.NoError(t, err)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "house", doc.Entities[0].Kind)
}

func TestDecodeRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"not yaml":       "rows: [1\n",
		"missing cols":   "rows: 3\n",
		"zero rows":      "rows: 0\ncols: 3\n",
		"no id":          "rows: 3\ncols: 3\nentities:\n  - {kind: house, col: 0, row: 0}\n",
		"tree no health": "rows: 3\ncols: 3\nentities:\n  - {kind: tree, id: t, col: 0, row: 0, action_period: 1, animation_period: 1}\n",
		"zero period":    "rows: 3\ncols: 3\nentities:\n  - {kind: fairy, id: f, col: 0, row: 0, action_period: 0, animation_period: 1}\n",
		"worker limit":   "rows: 3\ncols: 3\nentities:\n  - {kind: worker, id: w, col: 0, row: 0, action_period: 1, animation_period: 1}\n",
		"fractional col": "rows: 3\ncols: 3\nentities:\n  - {kind: house, id: h, col: 0.5, row: 0}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(src))
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestBuildUnknownKind(t *testing.T) {
	doc, err := Decode(strings.NewReader("rows: 3\ncols: 3\nentities:\n  - {kind: dragon, id: d, col: 0, row: 0}\n"))
	require.NoError(t, err)
	_, err = New(nil).Build(doc)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestBuildOccupiedCell(t *testing.T) {
	doc := &Document{Rows: 2, Cols: 2, Entities: []EntitySpec{
		{Kind: "house", ID: "a", Col: 1, Row: 1},
		{Kind: "stump", ID: "b", Col: 1, Row: 1},
	}}
	_, err := New(nil).Build(doc)
	assert.ErrorIs(t, err, world.ErrCellOccupied)
}

func TestBuildInvalidDimensions(t *testing.T) {
	_, err := New(nil).Build(&Document{Rows: 0, Cols: 2})
	assert.ErrorIs(t, err, world.ErrInvalidDimensions)
}

func TestWithSapling(t *testing.T) {
	doc := &Document{Rows: 1, Cols: 1, Entities: []EntitySpec{{Kind: "sapling", ID: "s"}}}
	w, err := New(nil, WithSapling(world.SaplingSpec{Period: 0.25, HealthLimit: 2})).Build(doc)
	require.NoError(t, err)
	s, ok := w.Occupant(world.Pt(0, 0))
	require.True(t, ok)
	assert.Equal(t, 0.25, s.AnimationPeriod)
	assert.Equal(t, 2, s.HealthLimit)
}

func TestSchedule(t *testing.T) {
	doc, err := DecodeFile("testdata/grove.yaml")
	require.NoError(t, err)

	s := scheduler.New(nil)
	ld := New(testStore())
	w, err := ld.Build(doc, world.WithCanceller(s))
	require.NoError(t, err)

	ld.Schedule(engine.New(w, s, nil))
	// worker, two trees, sapling and fairy get two events each; the pond one.
	assert.Equal(t, 11, s.Len())
}
