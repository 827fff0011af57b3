package fuzzy

import (
	"fmt"
	"math"
	"sort"

	"github.com/morphid/biodid-middleware/pkg/biometric"
)

// quantizeToken snaps a minutia onto the enrollment grid and angle partition
// and renders it as a canonical cell token. Two captures of the same ridge
// feature produce the same token as long as positional noise stays within one
// grid cell and rotational noise within one angle bin.
func quantizeToken(m biometric.MinutiaPoint, gridSize float64, angleBins int) string {
	cx := int64(math.Floor(m.X / gridSize))
	cy := int64(math.Floor(m.Y / gridSize))

	angle := math.Mod(m.Angle, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	bin := int64(angle / (2 * math.Pi) * float64(angleBins))
	if bin >= int64(angleBins) {
		bin = int64(angleBins) - 1
	}

	return fmt.Sprintf("%d:%d:%d", cx, cy, bin)
}

// quantizeSet returns the deduplicated, sorted cell tokens for a minutiae set.
// Deduplication matters: identical tokens would produce identical locker pads.
func quantizeSet(minutiae []biometric.MinutiaPoint, gridSize float64, angleBins int) []string {
	seen := make(map[string]struct{}, len(minutiae))
	for _, m := range minutiae {
		seen[quantizeToken(m, gridSize, angleBins)] = struct{}{}
	}

	tokens := make([]string, 0, len(seen))
	for t := range seen {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}
