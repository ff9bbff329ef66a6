// SPDX-License-Identifier: MIT

package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestIntBounds(t *testing.T) {
	cases := []struct {
		name    string
		value   any
		min     *int
		max     *int
		want    int
		wantErr bool
	}{
		{"in range", float64(10), intPtr(1), intPtr(100), 10, false},
		{"lower boundary", float64(1), intPtr(1), intPtr(100), 1, false},
		{"upper boundary", float64(100), intPtr(1), intPtr(100), 100, false},
		{"below", float64(0), intPtr(1), intPtr(100), 0, true},
		{"above", float64(101), intPtr(1), intPtr(100), 0, true},
		{"fractional", 1.5, nil, nil, 0, true},
		{"numeric string", "42", nil, nil, 42, false},
		{"garbage", "forty", nil, nil, 0, true},
		{"nil", nil, nil, nil, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Int("n", tc.value, tc.min, tc.max)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Int(%v) err = %v, wantErr=%v", tc.value, err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Fatalf("Int(%v) = %d, want %d", tc.value, got, tc.want)
			}
			if err != nil && err.Field != "n" {
				t.Fatalf("error field = %q, want n", err.Field)
			}
		})
	}
}

func TestNumberRejectsNonFinite(t *testing.T) {
	if _, err := Number("x", "NaN", nil, nil); err == nil {
		t.Fatal("NaN accepted")
	}
	if _, err := Number("x", "Inf", nil, nil); err == nil {
		t.Fatal("Inf accepted")
	}
}

func TestStringPatternAndClass(t *testing.T) {
	if _, err := String("name", "cube_1", StringOpts{Pattern: PatternAlnumUnderscore}); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
	if _, err := String("name", "cube-1", StringOpts{Pattern: PatternAlnumUnderscore}); err == nil {
		t.Fatal("dash accepted by underscore pattern")
	}
	if _, err := String("cmd", "rm -rf /; echo", StringOpts{Reject: ClassShell}); err == nil {
		t.Fatal("shell metachars accepted")
	}
	if _, err := String("q", "Robert'); DROP TABLE", StringOpts{Reject: ClassSQL}); err == nil {
		t.Fatal("sql tokens accepted")
	}
	if _, err := String("s", "<SCRIPT>alert(1)", StringOpts{Reject: ClassXSS}); err == nil {
		t.Fatal("case-folded xss token accepted")
	}
	if _, err := String("s", 42, StringOpts{}); err == nil {
		t.Fatal("non-string accepted")
	}
}

func TestBoolCoercion(t *testing.T) {
	truthy := []any{true, "true", "TRUE", "1", "yes", "on", float64(2), -1}
	for _, v := range truthy {
		got, err := Bool("b", v)
		if err != nil || !got {
			t.Errorf("Bool(%v) = %v, %v; want true", v, got, err)
		}
	}
	falsy := []any{false, "false", "0", "No", "off", float64(0)}
	for _, v := range falsy {
		got, err := Bool("b", v)
		if err != nil || got {
			t.Errorf("Bool(%v) = %v, %v; want false", v, got, err)
		}
	}
	if _, err := Bool("b", "maybe"); err == nil {
		t.Fatal("garbage boolean accepted")
	}
}

func TestURLPolicy(t *testing.T) {
	if _, err := URL("u", "srt://ingest.example.com:9000", []string{"srt", "rtmp"}, URLPolicy{}); err != nil {
		t.Fatalf("valid srt URL rejected: %v", err)
	}
	if _, err := URL("u", "http://ingest.example.com", []string{"srt"}, URLPolicy{}); err == nil {
		t.Fatal("disallowed scheme accepted")
	}
	if _, err := URL("u", "srt://127.0.0.1:9000", []string{"srt"}, URLPolicy{}); err == nil {
		t.Fatal("loopback accepted without AllowLocalhost")
	}
	if _, err := URL("u", "srt://127.0.0.1:9000", []string{"srt"}, URLPolicy{AllowLocalhost: true}); err != nil {
		t.Fatalf("loopback rejected with AllowLocalhost: %v", err)
	}
	if _, err := URL("u", "srt://192.168.1.4:9000", []string{"srt"}, URLPolicy{}); err == nil {
		t.Fatal("private range accepted without AllowPrivate")
	}
	if _, err := URL("u", "rtmp://host/app;rm -rf", []string{"rtmp"}, URLPolicy{}); err == nil {
		t.Fatal("shell metachar in raw URL accepted")
	}
	if _, err := URL("u", "rtmp://host/app?key=a&user=b", []string{"rtmp"}, URLPolicy{}); err != nil {
		t.Fatalf("single & in query rejected: %v", err)
	}
}

func TestColor(t *testing.T) {
	got, err := Color("color", "#FF0000")
	if err != nil {
		t.Fatalf("hex color rejected: %v", err)
	}
	if diff := cmp.Diff([]float64{1, 0, 0}, got); diff != "" {
		t.Fatalf("color mismatch (-want +got):\n%s", diff)
	}

	got, err = Color("color", []any{1.0, 0.5, 0.0})
	if err != nil {
		t.Fatalf("tuple color rejected: %v", err)
	}
	if diff := cmp.Diff([]float64{1, 0.5, 0}, got); diff != "" {
		t.Fatalf("tuple mismatch (-want +got):\n%s", diff)
	}

	if _, err := Color("color", "FF0000"); err == nil {
		t.Fatal("hex color without # accepted")
	}
	if _, err := Color("color", []any{1.0, 0.5}); err == nil {
		t.Fatal("2-component color accepted")
	}
	if _, err := Color("color", []any{1.0, 0.5, 1.5}); err == nil {
		t.Fatal("out-of-range component accepted")
	}
}

func TestVector3(t *testing.T) {
	got, err := Vector3("position", []any{float64(1), float64(2), float64(3)})
	if err != nil || got[2] != 3 {
		t.Fatalf("Vector3 = %v, %v", got, err)
	}
	if _, err := Vector3("position", []any{float64(1), float64(2)}); err == nil {
		t.Fatal("2 components accepted")
	}
	if _, err := Vector3("position", []any{1.0, 2.0, 3.0, 4.0}); err == nil {
		t.Fatal("4 components accepted")
	}
	got, err = Vector3("point", "5, 0, 2")
	if err != nil {
		t.Fatalf("query-string tuple rejected: %v", err)
	}
	if diff := cmp.Diff([]float64{5, 0, 2}, got); diff != "" {
		t.Fatalf("parsed tuple mismatch (-want +got):\n%s", diff)
	}
}

func TestScaleFloor(t *testing.T) {
	if _, err := Scale("scale", []any{0.09, 1.0, 1.0}); err == nil {
		t.Fatal("scale component 0.09 accepted")
	}
	if _, err := Scale("scale", []any{0.1, 1.0, 1.0}); err != nil {
		t.Fatalf("scale component 0.1 rejected: %v", err)
	}
}

func TestScenePath(t *testing.T) {
	if _, err := ScenePath("path", "/World/Cube_01"); err != nil {
		t.Fatalf("valid scene path rejected: %v", err)
	}
	if _, err := ScenePath("path", "World/Cube"); err == nil {
		t.Fatal("relative scene path accepted")
	}
	if _, err := ScenePath("path", "/World/../Cube"); err == nil {
		t.Fatal("dots in scene path accepted")
	}
}

func TestFilePath(t *testing.T) {
	if _, err := FilePath("p", "assets/../secret.usd", FileOpts{}); err == nil {
		t.Fatal("parent traversal accepted")
	}
	if _, err := FilePath("p", "scene.usd", FileOpts{Extensions: []string{".usd", ".usda"}}); err != nil {
		t.Fatalf("allowed extension rejected: %v", err)
	}
	if _, err := FilePath("p", "scene.obj", FileOpts{Extensions: []string{".usd"}}); err == nil {
		t.Fatal("disallowed extension accepted")
	}

	dir := t.TempDir()
	existing := filepath.Join(dir, "a.png")
	if err := os.WriteFile(existing, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := FilePath("p", existing, FileOpts{MustExist: true}); err != nil {
		t.Fatalf("existing file rejected: %v", err)
	}
	if _, err := FilePath("p", filepath.Join(dir, "missing.png"), FileOpts{MustExist: true}); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestJSONField(t *testing.T) {
	m, err := JSON("meta", map[string]any{"a": 1})
	if err != nil || m["a"] != 1 {
		t.Fatalf("mapping passthrough failed: %v %v", m, err)
	}
	m, err = JSON("meta", `{"b": true}`)
	if err != nil || m["b"] != true {
		t.Fatalf("string parse failed: %v %v", m, err)
	}
	if _, err := JSON("meta", "[1,2]"); err == nil {
		t.Fatal("JSON array accepted as object")
	}
}

func TestEnum(t *testing.T) {
	if _, err := Enum("encoder", "x264", []string{"x264", "nvenc", "vaapi"}); err != nil {
		t.Fatalf("valid enum rejected: %v", err)
	}
	if _, err := Enum("encoder", "av1", []string{"x264"}); err == nil {
		t.Fatal("invalid enum accepted")
	}
}

func TestPatternSet(t *testing.T) {
	cases := []struct {
		pattern string
		ok      []string
		bad     []string
	}{
		{PatternFraction, []string{"30/1", "24000/1001"}, []string{"30", "1/0", "a/b"}},
		{PatternUUID4, []string{"9b2d44e0-24ab-4f9a-8d5e-1f2a3b4c5d6e"}, []string{"not-a-uuid", "9B2D44E0-24AB-4F9A-8D5E-1F2A3B4C5D6E"}},
		{PatternIPv4, []string{"10.0.0.1", "255.255.255.255"}, []string{"256.1.1.1", "1.2.3"}},
		{PatternPort, []string{"1", "65535", "8080"}, []string{"0", "65536", "-1"}},
		{PatternSafeFilename, []string{"frame_0001.png"}, []string{"../etc/passwd", "a b.png"}},
	}
	for _, tc := range cases {
		for _, s := range tc.ok {
			if !Matches(tc.pattern, s) {
				t.Errorf("pattern %s should match %q", tc.pattern, s)
			}
		}
		for _, s := range tc.bad {
			if Matches(tc.pattern, s) {
				t.Errorf("pattern %s should not match %q", tc.pattern, s)
			}
		}
	}
	if Matches("no_such_pattern", "x") {
		t.Fatal("unknown pattern matched")
	}
}

func TestBatchAggregation(t *testing.T) {
	b := NewBatch()
	b.Int("width", float64(0), intPtr(1), intPtr(7680))
	b.Vector3("position", []any{1.0, 2.0})
	b.String("name", "ok_name", StringOpts{Pattern: PatternAlnumUnderscore})

	err := b.Err()
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	batchErr, ok := err.(*BatchError)
	if !ok {
		t.Fatalf("unexpected error type %T", err)
	}
	if diff := cmp.Diff([]string{"width", "position"}, batchErr.Fields()); diff != "" {
		t.Fatalf("failed fields mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchValid(t *testing.T) {
	b := NewBatch()
	b.Number("radius", float64(10), floatPtr(0), nil)
	b.Bool("visible", "yes")
	if err := b.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.IsValid() {
		t.Fatal("IsValid() = false for valid batch")
	}
}
