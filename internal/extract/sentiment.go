package extract

import "strings"

// sentimentLexicon scores words commonly carrying opinion in listing prose.
// Polarity values follow the usual [-1, 1] convention.
var sentimentLexicon = map[string]float64{
	"perfect":     1.0,
	"beautiful":   0.85,
	"lovely":      0.75,
	"amazing":     0.9,
	"great":       0.8,
	"good":        0.7,
	"unique":      0.6,
	"charming":    0.7,
	"elegant":     0.7,
	"stunning":    0.9,
	"cute":        0.5,
	"adorable":    0.75,
	"quality":     0.4,
	"premium":     0.5,
	"best":        1.0,
	"favorite":    0.6,
	"happy":       0.8,
	"love":        0.5,
	"bad":         -0.7,
	"poor":        -0.6,
	"broken":      -0.7,
	"damaged":     -0.65,
	"cheap":       -0.4,
	"worn":        -0.3,
	"fake":        -0.8,
	"ugly":        -0.9,
	"disappointed": -0.75,
	"wrong":       -0.5,
}

// sentimentPolarity averages the lexicon polarity of every scored word in the
// text; 0 when no word scores.
func sentimentPolarity(text string) float64 {
	var sum float64
	var n int
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:\"'")
		if p, ok := sentimentLexicon[w]; ok {
			sum += p
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
