package ownership

import (
	"encoding/json"
	"testing"
)

func TestJsonObjectWriter(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		var w jsonObjectWriter
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "{}"; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("keeps field order", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("z", 1).Append("a", "hello")
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"z":1,"a":"hello"}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("embed object", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("a", 1)
		w.Embed(json.RawMessage(`{"c":3,"d":4}`))
		w.Append("b", 2)
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"a":1,"c":3,"d":4,"b":2}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("optional fields", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("a", 0)
		w.Optional("b", "")
		w.Optional("c", []string(nil))
		w.Optional("d", "hello")
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"a":0,"d":"hello"}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("embed from", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("a", 1)
		w.EmbedFrom(GraphStats{Entities: 3, WithShareholders: 1, Leaves: 2, Edges: 2})
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"a":1,"entities":3,"withShareholders":1,"leaves":2,"edges":2}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestBeneficiaryRecord_MarshalJSON(t *testing.T) {
	r := BeneficiaryRecord{Root: "RED COW INC", Beneficiary: "Luz Diaz", Key: "LUZ DIAZ", Percent: P(12.6549)}
	got, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"Entidad":"RED COW INC","Accionista":"Luz Diaz","Participacion":12.65}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestReport_MarshalJSON(t *testing.T) {
	r := &Report{ID: "run", Root: "ROOT", Mode: ModeFinalColumn, Total: P(0)}
	got, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"id":"run","root":"ROOT","mode":"final-column","total":0.00,"records":[]}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
