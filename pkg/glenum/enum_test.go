package glenum

import "testing"

func TestEnumString(t *testing.T) {
	tests := []struct {
		enum Enum
		want string
	}{
		{ElementArrayBuffer, "ELEMENT_ARRAY_BUFFER"},
		{DepthTest, "DEPTH_TEST"},
		{InvalidOperation, "INVALID_OPERATION"},
		{Enum(0x1234), "0x1234"},
	}

	for _, tt := range tests {
		if got := tt.enum.String(); got != tt.want {
			t.Errorf("Enum(%d).String() = %s, want %s", uint32(tt.enum), got, tt.want)
		}
	}
}

func TestEnumClassification(t *testing.T) {
	if !DepthTest.IsCapability() {
		t.Error("DEPTH_TEST should be a capability")
	}
	if ArrayBuffer.IsCapability() {
		t.Error("ARRAY_BUFFER should not be a capability")
	}
	if !ElementArrayBuffer.IsBufferTarget() {
		t.Error("ELEMENT_ARRAY_BUFFER should be a buffer target")
	}
	if !Lequal.IsCompareFunc() || Float.IsCompareFunc() {
		t.Error("compare func classification mismatch")
	}
	if !Triangles.IsDrawMode() || Enum(7).IsDrawMode() {
		t.Error("draw mode classification mismatch")
	}
}

func TestClearBits(t *testing.T) {
	mask := ColorBufferBit | DepthBufferBit
	if mask != 0x4100 {
		t.Errorf("COLOR|DEPTH = 0x%X, want 0x4100", mask)
	}
}
