package vision

import "testing"

func maskFromRows(rows []string) *Mask {
	h := len(rows)
	w := len(rows[0])
	m := NewMask(w, h)
	for y, row := range rows {
		for x := 0; x < w; x++ {
			if row[x] == '#' {
				m.Bits[y*w+x] = 1
			}
		}
	}
	return m
}

func TestCleanDropsIsolatedNoise(t *testing.T) {
	m := NewMask(16, 16)
	m.Set(3, 3, true)
	m.Set(12, 7, true)

	out := Clean(m, 1)
	if n := out.Count(); n != 0 {
		t.Errorf("isolated pixels survived cleaning: %d remain", n)
	}
}

func TestCleanFillsInteriorHole(t *testing.T) {
	rows := []string{
		"................",
		"................",
		"..##########....",
		"..##########....",
		"..####.#####....",
		"..##########....",
		"..##########....",
		"..##########....",
		"................",
	}
	m := maskFromRows(rows)
	out := Clean(m, 1)
	if !out.Get(6, 4) {
		t.Error("interior hole not filled by closing")
	}
}

func TestCleanPreservesLargeBlob(t *testing.T) {
	m := NewMask(32, 32)
	for y := 8; y < 24; y++ {
		for x := 8; x < 24; x++ {
			m.Set(x, y, true)
		}
	}
	out := Clean(m, 2)
	if out.Count() != 16*16 {
		t.Errorf("16x16 blob count after clean = %d, want %d", out.Count(), 256)
	}
	for y := 8; y < 24; y++ {
		for x := 8; x < 24; x++ {
			if !out.Get(x, y) {
				t.Fatalf("blob pixel (%d,%d) lost", x, y)
			}
		}
	}
}

func TestCleanZeroRadiusIsIdentity(t *testing.T) {
	m := NewMask(8, 8)
	m.Set(1, 1, true)
	if out := Clean(m, 0); out != m {
		t.Error("radius 0 should return the input mask unchanged")
	}
}

func TestErodeShrinksFromBorder(t *testing.T) {
	m := NewMask(8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			m.Set(x, y, true)
		}
	}
	out := Erode(m, 1)
	if out.Get(0, 0) {
		t.Error("corner pixel survived erosion; out-of-frame should count as background")
	}
	if !out.Get(4, 4) {
		t.Error("interior pixel lost to erosion")
	}
	if out.Count() != 6*6 {
		t.Errorf("eroded count = %d, want 36", out.Count())
	}
}

func TestDilateGrowsByRadius(t *testing.T) {
	m := NewMask(9, 9)
	m.Set(4, 4, true)
	out := Dilate(m, 1)
	if out.Count() != 9 {
		t.Errorf("dilated count = %d, want 9", out.Count())
	}
	if !out.Get(3, 3) || !out.Get(5, 5) {
		t.Error("dilation missed neighbourhood pixels")
	}
}
