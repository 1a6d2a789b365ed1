package smc

import "testing"

// TestClassifyBullishStructure tests that higher highs and higher lows
// classify as bullish
func TestClassifyBullishStructure(t *testing.T) {
	sc := NewStructureClassifier(NewSwingDetector(1))

	if bias := sc.Classify(bullishZigzag(12)); bias != BiasBullish {
		t.Errorf("Expected bullish bias, got %s", bias)
	}
}

// TestClassifyBearishStructure tests that lower highs and lower lows
// classify as bearish
func TestClassifyBearishStructure(t *testing.T) {
	sc := NewStructureClassifier(NewSwingDetector(1))

	if bias := sc.Classify(bearishZigzag(12)); bias != BiasBearish {
		t.Errorf("Expected bearish bias, got %s", bias)
	}
}

// TestClassifyFlatStructure tests that a flat window classifies as sideways
func TestClassifyFlatStructure(t *testing.T) {
	sc := NewStructureClassifier(NewSwingDetector(1))

	if bias := sc.Classify(flatWindow(40, 100)); bias != BiasSideways {
		t.Errorf("Expected sideways bias for flat window, got %s", bias)
	}
}

// TestClassifyShortWindow tests that windows under 20 candles classify as
// sideways even when the shape trends
func TestClassifyShortWindow(t *testing.T) {
	sc := NewStructureClassifier(NewSwingDetector(1))

	if bias := sc.Classify(bullishZigzag(9)); bias != BiasSideways {
		t.Errorf("Expected sideways bias for short window, got %s", bias)
	}
}

// TestClassifyMixedStructure tests that conflicting pivot trends classify
// as sideways
func TestClassifyMixedStructure(t *testing.T) {
	sc := NewStructureClassifier(NewSwingDetector(1))

	// ascending highs paired with descending lows: widening range
	w := bullishZigzag(12)
	for i := 1; i < len(w); i += 2 {
		w[i].Low = 99 - float64(i)*0.5
	}

	if bias := sc.Classify(w); bias != BiasSideways {
		t.Errorf("Expected sideways bias for widening range, got %s", bias)
	}
}
