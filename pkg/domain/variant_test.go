package domain

import "testing"

func TestMicrobeStringCodeRoundTrip(t *testing.T) {
	microbe := NewMicrobeSpecies(1, "Primum", "thrivium")
	if err := microbe.SetStringCode("NMCF"); err != nil {
		t.Fatalf("SetStringCode: %v", err)
	}
	if got := microbe.StringCode(); got != "NMCF" {
		t.Errorf("StringCode = %q", got)
	}
	if len(microbe.Organelles) != 4 {
		t.Fatalf("expected 4 placements, got %d", len(microbe.Organelles))
	}
}

func TestMicrobeSetStringCodeRejectsUnknownSymbol(t *testing.T) {
	microbe := NewMicrobeSpecies(1, "Primum", "thrivium")
	if err := microbe.SetStringCode("NZ"); err == nil {
		t.Fatal("expected error for unknown organelle symbol")
	}
	if len(microbe.Organelles) != 0 {
		t.Error("layout modified despite invalid code")
	}
}

func TestMicrobeRepositionToOrigin(t *testing.T) {
	microbe := NewMicrobeSpecies(1, "Primum", "thrivium")
	microbe.Organelles = []OrganellePlacement{
		{Symbol: "N", Q: 4, R: 6},
		{Symbol: "C", Q: 6, R: 8},
	}
	microbe.RepositionToOrigin()
	if microbe.Organelles[0].Q != -1 || microbe.Organelles[0].R != -1 {
		t.Errorf("first placement not recentered: %+v", microbe.Organelles[0])
	}
	if microbe.Organelles[1].Q != 1 || microbe.Organelles[1].R != 1 {
		t.Errorf("second placement not recentered: %+v", microbe.Organelles[1])
	}
}

func TestMulticellularStringCode(t *testing.T) {
	multi := NewMulticellularSpecies(1, "Grandus", "corpus")
	if err := multi.SetStringCode(`[{"type":"muscle","x":2,"y":0}]`); err != nil {
		t.Fatalf("SetStringCode: %v", err)
	}
	if len(multi.CellTypes) != 1 || multi.CellTypes[0].Type != "muscle" {
		t.Fatalf("layout not applied: %+v", multi.CellTypes)
	}
	if err := multi.SetStringCode(`[{"x":1}]`); err == nil {
		t.Error("expected error for unnamed cell type")
	}
	if err := multi.SetStringCode("not json"); err == nil {
		t.Error("expected error for malformed layout")
	}
}

func TestMulticellularRepositionToOrigin(t *testing.T) {
	multi := NewMulticellularSpecies(1, "Grandus", "corpus")
	multi.CellTypes = []CellTemplate{
		{Type: "axon", X: 10, Y: 2},
		{Type: "muscle", X: 12, Y: 4},
	}
	multi.RepositionToOrigin()
	if multi.CellTypes[0].X != -1 || multi.CellTypes[0].Y != -1 {
		t.Errorf("first cell not recentered: %+v", multi.CellTypes[0])
	}
}
