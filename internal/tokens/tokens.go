// Package tokens converts heterogeneous usage signals (pixel dimensions,
// raw text, token counts) into comparable token and cost figures.
package tokens

import (
	"strings"

	"github.com/browserbench/browserbench/internal/appconfig"
)

// imageTokenDivisor is the heuristic pixels-per-token ratio for vision model
// input. It is a documented estimate, not any provider's real accounting;
// changing it would break comparability with previously recorded benchmarks.
const imageTokenDivisor = 750

// EstimateImageTokens returns ceil(width*height/750), the estimated token
// cost of attaching an image with the given pixel dimensions to a prompt.
func EstimateImageTokens(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	pixels := width * height
	return (pixels + imageTokenDivisor - 1) / imageTokenDivisor
}

// EstimateCostUSD converts token counts into a currency figure using the
// per-million-token pricing snapshot.
func EstimateCostUSD(inputTokens, outputTokens int, pricing appconfig.Pricing) float64 {
	return float64(inputTokens)/1e6*pricing.InputPerMillion +
		float64(outputTokens)/1e6*pricing.OutputPerMillion
}

// supportedMimeTypes are the image formats the harness accounts for. Anything
// else is excluded from token accounting at the boundary.
var supportedMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidMimeType reports whether mimeType names one of the four recognized
// image formats. Bare subtypes ("png") are accepted as aliases.
func ValidMimeType(mimeType string) bool {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	if m == "" {
		return false
	}
	if !strings.Contains(m, "/") {
		m = "image/" + m
	}
	if m == "image/jpg" {
		m = "image/jpeg"
	}
	return supportedMimeTypes[m]
}
