package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestMeasure(t *testing.T) {
	t.Run("UnmarshalJSON", func(t *testing.T) {
		tc := []struct {
			name      string
			input     string
			want      Measure
			wantError bool
		}{
			{name: "number", input: `3000.125`, want: NewMeasure(3000.125)},
			{name: "zero is present", input: `0`, want: NewMeasure(0)},
			{name: "numeric string", input: `"21.7"`, want: NewMeasure(21.7)},
			{name: "null", input: `null`, want: Measure{}},
			{name: "empty string", input: `""`, want: Measure{}},
			{name: "non numeric string", input: `"M20"`, wantError: true},
			{name: "object", input: `{}`, wantError: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				var got Measure
				err := json.Unmarshal([]byte(tt.input), &got)
				if (err != nil) != tt.wantError {
					t.Fatalf("Unmarshal(%s) error = %v, wantError %v", tt.input, err, tt.wantError)
				}
				if !tt.wantError && got != tt.want {
					t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.input, got, tt.want)
				}
			})
		}
	})

	t.Run("Format", func(t *testing.T) {
		tc := []struct {
			m    Measure
			want string
		}{
			{m: NewMeasure(3000.125), want: "3000.13"},
			{m: NewMeasure(0), want: "0.00"},
			{m: NewMeasure(12), want: "12.00"},
			{m: NewMeasure(-0.001), want: "0.00"},
			{m: NewMeasure(2.5), want: "2.50"},
			{m: Measure{}, want: "-"},
		}

		for _, tt := range tc {
			if got := tt.m.Format("-"); got != tt.want {
				t.Errorf("Format() = %v, want %v", got, tt.want)
			}
		}
	})

	t.Run("missing field stays absent", func(t *testing.T) {
		var rec MaterialRecord
		if err := json.Unmarshal([]byte(`{"name":"Beam1","element_type":"beam","length":3000.125}`), &rec); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if rec.OverallDepth.Valid {
			t.Error("overall_depth should be absent")
		}
		if !rec.Length.Valid || rec.Length.Value != 3000.125 {
			t.Errorf("unexpected length %+v", rec.Length)
		}
	})
}

func TestMaterialRecord_DisplayWidth(t *testing.T) {
	t.Run("prefers flange width", func(t *testing.T) {
		rec := MaterialRecord{FlangeWidth: NewMeasure(200), Width: NewMeasure(150)}
		if got := rec.DisplayWidth(); got.Value != 200 {
			t.Errorf("DisplayWidth() = %v, want 200", got.Value)
		}
	})

	t.Run("falls back to width", func(t *testing.T) {
		rec := MaterialRecord{Width: NewMeasure(150)}
		if got := rec.DisplayWidth(); got.Value != 150 || !got.Valid {
			t.Errorf("DisplayWidth() = %+v, want 150", got)
		}
	})

	t.Run("absent when neither is set", func(t *testing.T) {
		if (MaterialRecord{}).DisplayWidth().Valid {
			t.Error("DisplayWidth() should be absent")
		}
	})
}

func TestMaterialList(t *testing.T) {
	list := MaterialList{{Name: "A"}, {Name: "B"}}
	clone := list.Clone()
	clone[0].Name = "changed"

	if list[0].Name != "A" {
		t.Error("Clone() should not share the backing array")
	}
	if list.Len() != 2 || list.Empty() {
		t.Errorf("unexpected Len/Empty for %v", list)
	}
	if !MaterialList(nil).Empty() || MaterialList(nil).Clone() != nil {
		t.Error("nil list should be empty and clone to nil")
	}
}

func TestUploadFile(t *testing.T) {
	t.Run("NewUploadFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "model.ifc")
		if err := os.WriteFile(path, []byte("ISO-10303-21;"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		f, err := NewUploadFile(path)
		if err != nil {
			t.Fatalf("NewUploadFile() error = %v", err)
		}
		if f.Name != "model.ifc" || f.Size != 13 {
			t.Errorf("unexpected handle %+v", f)
		}

		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		rc.Close()
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := NewUploadFile(filepath.Join(t.TempDir(), "missing.ifc")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("directory", func(t *testing.T) {
		if _, err := NewUploadFile(t.TempDir()); err == nil {
			t.Error("expected error for directory")
		}
	})
}

func TestArtifact(t *testing.T) {
	a := NewArtifact("material_list.csv", "text/csv", []byte("name\nBeam1\n"))
	if a.Size() != 11 || a.Released() {
		t.Fatalf("unexpected artifact state: size=%d released=%v", a.Size(), a.Released())
	}

	a.Release()
	if !a.Released() || a.Bytes() != nil {
		t.Error("Release() should drop the payload")
	}
}

func TestRun_Validate(t *testing.T) {
	tc := []struct {
		name    string
		run     *Run
		wantErr bool
	}{
		{name: "valid", run: NewRun(1, "model.ifc", 10)},
		{name: "missing file name", run: NewRun(1, "", 10), wantErr: true},
		{name: "negative size", run: NewRun(1, "model.ifc", -1), wantErr: true},
		{name: "unknown stage", run: &Run{FileName: "model.ifc", Stage: "lost"}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
