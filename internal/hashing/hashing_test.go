package hashing

import (
	"testing"

	"github.com/antigravity-dev/codegraph/internal/model"
)

func TestFunctionSignatureHashStableUnderParamOrder(t *testing.T) {
	a := model.Function{Name: "Do", Params: []model.Param{{Name: "b", Type: "int"}, {Name: "a", Type: "string"}}}
	b := model.Function{Name: "Do", Params: []model.Param{{Name: "a", Type: "string"}, {Name: "b", Type: "int"}}}
	if FunctionSignatureHash(a) != FunctionSignatureHash(b) {
		t.Fatalf("expected param-order-independent hash to match")
	}
}

func TestFunctionSignatureHashChangesOnReturnType(t *testing.T) {
	a := model.Function{Name: "Do", ReturnType: "int"}
	b := model.Function{Name: "Do", ReturnType: "string"}
	if FunctionSignatureHash(a) == FunctionSignatureHash(b) {
		t.Fatalf("expected different return types to hash differently")
	}
}

func TestBodyHashIgnoresCommentsAndWhitespace(t *testing.T) {
	a := "func Do() {\n  return 1 // comment\n}"
	b := "func Do() {   return 1   }"
	if BodyHash(a) != BodyHash(b) {
		t.Fatalf("expected comment/whitespace variance to hash identically")
	}
}

func TestBodyHashRedactsLiterals(t *testing.T) {
	a := `return "hello"`
	b := `return "world"`
	if BodyHash(a) != BodyHash(b) {
		t.Fatalf("expected differing string literals to hash identically once redacted")
	}
}

func TestBodyHashChangesOnLogic(t *testing.T) {
	a := "return a + b"
	b := "return a - b"
	if BodyHash(a) == BodyHash(b) {
		t.Fatalf("expected differing logic to hash differently")
	}
}

func TestSimilarityIdentical(t *testing.T) {
	if Similarity("abcd1234", "abcd1234") != 1.0 {
		t.Fatalf("expected identical hashes to have similarity 1.0")
	}
}

func TestSimilarityPartial(t *testing.T) {
	sim := Similarity("abcd1234", "abcd5678")
	if sim <= 0 || sim >= 1.0 {
		t.Fatalf("expected partial similarity in (0,1), got %v", sim)
	}
}

func TestFileStructureHashOrderIndependent(t *testing.T) {
	h1 := FileStructureHash([]string{"B", "A"}, []string{"y", "x"})
	h2 := FileStructureHash([]string{"A", "B"}, []string{"x", "y"})
	if h1 != h2 {
		t.Fatalf("expected symbol/import order independence")
	}
}
