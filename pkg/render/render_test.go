package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/njtree/pkg/tree"
)

func quartet(t *testing.T) *tree.Tree {
	t.Helper()
	tr, err := tree.New([]string{"A", "B", "C", "D"})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Join(6, tree.Edge{Child: 1, Length: 1}, tree.Edge{Child: 2, Length: 1}); err != nil {
		t.Fatal(err)
	}
	if err := tr.Join(5, tree.Edge{Child: 3, Length: 1}, tree.Edge{Child: 4, Length: -0.5}, tree.Edge{Child: 6, Length: 2}); err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(quartet(t), Options{
		Support: map[tree.NodeID]float64{5: 1, 6: 0.42},
		Lengths: true,
	})

	for _, want := range []string{
		"graph T {",
		"layout=neato;",
		`n1 [label="A"];`,
		`n6 [shape=point, width=0.06, xlabel="0.42"`,
		`n5 [shape=point, width=0.06, xlabel="1"`,
		`n5 -- n6 [len=20.0000, label="2.0"];`,
		`n5 -- n4 [len=0.0500, label="-0.5"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Index(dot, "n5 -- n6") > strings.Index(dot, "n6 -- n1") {
		t.Error("edges should follow edge-list order")
	}
}

func TestToDOTDefaults(t *testing.T) {
	dot := ToDOT(quartet(t), Options{Layout: "twopi"})
	if !strings.Contains(dot, "layout=twopi;") {
		t.Errorf("layout not applied:\n%s", dot)
	}
	if strings.Contains(dot, "xlabel") || strings.Contains(dot, "label=\"1.0\"") {
		t.Errorf("unexpected support or length labels:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %q, want %q", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}
