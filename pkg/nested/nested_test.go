package nested

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSetPath_CreatesBranches(t *testing.T) {
	root := NewBranch[int]()
	if err := root.SetPath([]string{"Eastern", "Batticaloa", "Manmunai North"}, 7); err != nil {
		t.Fatalf("SetPath: %v", err)
	}

	mid, ok := root.Lookup("Eastern", "Batticaloa")
	if !ok {
		t.Fatal("expected intermediate branch")
	}
	if mid.IsLeaf() {
		t.Error("intermediate node should be a branch")
	}
	leaf, ok := root.Lookup("Eastern", "Batticaloa", "Manmunai North")
	if !ok {
		t.Fatal("expected leaf")
	}
	if v, ok := leaf.Value(); !ok || v != 7 {
		t.Errorf("leaf value = %d (%v), want 7", v, ok)
	}
}

func TestSetPath_EmptyPath(t *testing.T) {
	root := NewBranch[string]()
	if err := root.SetPath(nil, "x"); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("err = %v, want ErrEmptyPath", err)
	}
}

func TestSetPath_ThroughLeaf(t *testing.T) {
	root := NewBranch[string]()
	root.SetPath([]string{"Ampara"}, "district")

	err := root.SetPath([]string{"Ampara", "Dehiattakandiya"}, "sub")
	if !errors.Is(err, ErrLeafInPath) {
		t.Errorf("err = %v, want ErrLeafInPath", err)
	}
}

func TestSetPath_ReplacesFinalNode(t *testing.T) {
	root := NewBranch[string]()
	root.SetPath([]string{"Galle", "Akmeemana"}, "sub")
	if err := root.SetPath([]string{"Galle"}, "district"); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	n, _ := root.Child("Galle")
	if !n.IsLeaf() {
		t.Error("final key should be replaced by a leaf")
	}
}

func TestUpdatePath(t *testing.T) {
	root := NewBranch[int]()
	inc := func(old int, _ bool) int { return old + 1 }
	for i := 0; i < 3; i++ {
		if err := root.UpdatePath([]string{"Jaffna", "Falantes"}, inc); err != nil {
			t.Fatalf("UpdatePath: %v", err)
		}
	}
	n, _ := root.Lookup("Jaffna", "Falantes")
	if v, _ := n.Value(); v != 3 {
		t.Errorf("count = %d, want 3", v)
	}

	var sawFound bool
	root.UpdatePath([]string{"Jaffna", "NA"}, func(old int, found bool) int {
		sawFound = found
		return old
	})
	if sawFound {
		t.Error("found should be false for a new leaf")
	}
}

func TestEnsurePath_OnLeafRoot(t *testing.T) {
	leaf := NewLeaf("x")
	if _, err := leaf.EnsurePath([]string{"a"}); !errors.Is(err, ErrLeafInPath) {
		t.Errorf("err = %v, want ErrLeafInPath", err)
	}
}

func TestWalkAndJSON(t *testing.T) {
	root := NewBranch[string]()
	root.SetPath([]string{"b", "y"}, "2")
	root.SetPath([]string{"a"}, "1")
	root.SetPath([]string{"b", "x"}, "3")

	var got []string
	root.Walk(func(path []string, v string) {
		got = append(got, strings.Join(path, "/")+"="+v)
	})
	want := "a=1,b/x=3,b/y=2"
	if strings.Join(got, ",") != want {
		t.Errorf("Walk = %v, want %s", got, want)
	}

	data, err := json.Marshal(root)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"a":"1","b":{"x":"3","y":"2"}}` {
		t.Errorf("json = %s", data)
	}

	if keys := root.Keys(); len(keys) != 2 || keys[0] != "a" {
		t.Errorf("Keys = %v", keys)
	}
	if root.Len() != 2 {
		t.Errorf("Len = %d, want 2", root.Len())
	}
}
